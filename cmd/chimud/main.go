package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/chimu.go/pkg/env"
)

var configFile string

func init() {
	env.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML config file, flags override it.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	if configFile != "" {
		conf.MustLoadFile(configFile)
		// explicitly set flags take precedence over the file
		fs := flag.NewFlagSet("overrides", flag.ContinueOnError)
		env.SetupFlagSet(fs, conf)
		flag.Visit(func(f *flag.Flag) {
			if fs.Lookup(f.Name) != nil {
				fs.Set(f.Name, f.Value.String())
			}
		})
	}
	e := conf.MustNewEnv()
	glog.Infof("%s: decoding %s", conf.Info.Ref.Name(), deviceName(conf))
	if err := e.Run(); err != nil {
		log.Fatalln(err)
	}
}

func deviceName(conf *env.Config) string {
	if conf.Device == "" {
		return "stdin"
	}
	return conf.Device + " (" + conf.Port.String() + ")"
}
