package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/chimu.go/pkg/chimu"
	"github.com/robotalks/chimu.go/pkg/publish"
	"github.com/robotalks/chimu.go/pkg/publish/mqtt"
)

var (
	mqttURL   = "mqtt://localhost:1883/"
	codecName string
	filter    = "chimu/#"
)

func init() {
	if val := os.Getenv("CHIMU_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&codecName, "codec", codecName, "Codec of updates: proto or json.")
	flag.StringVar(&filter, "topic", filter, "Topic filter to monitor.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	codec, err := publish.CodecByName(codecName)
	if err != nil {
		log.Fatalln(err)
	}
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub(filter, func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.MetaTopic):
			log.Printf("%s: %s", topic, string(payload))
		case strings.HasSuffix(topic, "/"+publish.HealthTopic):
			var h publish.Health
			if err := codec.Unmarshal(payload, &h); err != nil {
				log.Printf("%s: bad health: %v", topic, err)
				return
			}
			log.Printf("%s: frames=%d updates=%d faults=%v", topic, h.Frames, h.Updates, h.Faults)
		default:
			var u chimu.Update
			if err := codec.Unmarshal(payload, &u); err != nil {
				log.Printf("%s: bad update: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, u.String())
		}
	})
	<-(chan struct{})(nil)
}
