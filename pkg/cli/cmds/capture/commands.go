package capture

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/chimu.go/pkg/analysis"
	"github.com/robotalks/chimu.go/pkg/chimu"
	"github.com/robotalks/chimu.go/pkg/cli/sh"
	"github.com/robotalks/chimu.go/pkg/publish"
	"github.com/robotalks/chimu.go/pkg/publish/record"
)

func readCapture(c *ishell.Context) ([]*chimu.Update, bool) {
	if len(c.Args) < 1 {
		c.Err(fmt.Errorf("FILE required"))
		return nil, false
	}
	data, err := ioutil.ReadFile(c.Args[0])
	if err != nil {
		c.Err(err)
		return nil, false
	}
	s := sh.ShellFrom(c)
	s.Parser.Reset()
	return s.Feed(data), true
}

// Dump prints all updates in a record file.
func Dump(fn string, codec publish.Codec, pub publish.Publisher) (int, error) {
	f, err := os.Open(fn)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return record.NewPlayer(f, codec).Replay(context.Background(), pub)
}

var (
	// ReplayCmd feeds a raw capture file into the parser.
	ReplayCmd = ishell.Cmd{
		Name: "replay",
		Help: "FILE",
		Func: func(c *ishell.Context) {
			updates, ok := readCapture(c)
			if !ok {
				return
			}
			for _, u := range updates {
				sh.Print(c, u)
			}
		},
	}

	// StatsCmd summarizes the updates in a raw capture file.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "FILE",
		Func: func(c *ishell.Context) {
			updates, ok := readCapture(c)
			if !ok {
				return
			}
			sh.Print(c, analysis.Summarize(updates))
		},
	}

	// DumpCmd prints updates from a record file.
	DumpCmd = ishell.Cmd{
		Name: "dump",
		Help: "FILE [CODEC]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			name := sh.ShellFrom(c).Config.Codec
			if len(c.Args) > 1 {
				name = c.Args[1]
			}
			codec, err := publish.CodecByName(name)
			if err != nil {
				c.Err(err)
				return
			}
			_, err = Dump(c.Args[0], codec, publish.PublishFunc(func(ctx context.Context, u *chimu.Update) error {
				sh.Print(c, u)
				return nil
			}))
			if err != nil && err != io.EOF {
				c.Err(err)
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&ReplayCmd,
		&StatsCmd,
		&DumpCmd,
	)
}
