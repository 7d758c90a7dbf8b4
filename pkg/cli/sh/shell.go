// Package sh provides an interactive shell to decode and build CHIMU frames.
package sh

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/chimu.go/pkg/chimu"
	"github.com/robotalks/chimu.go/pkg/env"
)

// Shell provides ishell backed interactive shell around a Parser.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *env.Config
	Parser *chimu.Parser
	Faults chimu.FaultCounters
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&FeedCmd,
		&ResetCmd,
		&InitCmd,
		&ShowCmd,
		&FaultsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) (*Shell, error) {
	parser, err := conf.NewParser()
	if err != nil {
		return nil, err
	}
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
		Parser: parser,
	}
	s.Shell.Set(shellKey, s)
	s.updatePrompt()
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s, nil
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

func (s *Shell) updatePrompt() {
	s.Shell.SetPrompt(fmt.Sprintf("[%02x] > ", s.Parser.OwnDevice()))
}

// Feed parses data and returns the updates it produced.
func (s *Shell) Feed(data []byte) []*chimu.Update {
	var updates []*chimu.Update
	for _, b := range data {
		pr := s.Parser.Parse(b)
		s.Faults.Add(pr.Fault)
		if u := chimu.NewUpdate(s.Parser, pr, time.Now()); u != nil {
			updates = append(updates, u)
		}
	}
	return updates
}

// Print prints v as JSON in JSON mode, otherwise in text.
func Print(c *ishell.Context, v interface{}) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if str, ok := v.(fmt.Stringer); ok {
		c.Println(str.String())
		return
	}
	c.Printf("%+v\n", v)
}

// ParseHex parses bytes from arguments like "aeae", "ae ae" or "0xae".
func ParseHex(args []string) ([]byte, error) {
	var w strings.Builder
	for _, arg := range args {
		for _, tok := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ':' }) {
			w.WriteString(strings.TrimPrefix(strings.ToLower(tok), "0x"))
		}
	}
	return hex.DecodeString(w.String())
}

// ParseFloats parses all args as float32.
func ParseFloats(args []string) ([]float32, error) {
	vals := make([]float32, len(args))
	for n, arg := range args {
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %v", arg, err)
		}
		vals[n] = float32(v)
	}
	return vals, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// FeedCmd feeds hex bytes into the parser.
	FeedCmd = ishell.Cmd{
		Name:    "feed",
		Aliases: []string{"f"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			data, err := ParseHex(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			for _, u := range s.Feed(data) {
				Print(c, u)
			}
			if s.Parser.Receiving() && !s.OutputJSON {
				c.Printf("(%d bytes of frame pending)\n", len(s.Parser.RawFrame()))
			}
		},
	}

	// ResetCmd resets the parser state machine.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Parser.Reset()
		},
	}

	// InitCmd re-initializes the parser with a device ID.
	InitCmd = ishell.Cmd{
		Name: "init",
		Help: "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			dev := s.Parser.OwnDevice()
			if len(c.Args) > 0 {
				val, err := strconv.ParseUint(c.Args[0], 0, 8)
				if err != nil {
					c.Err(fmt.Errorf("invalid DEVICE: %v", err))
					return
				}
				dev = byte(val)
			}
			s.Parser.Init(dev)
			s.Faults = chimu.FaultCounters{}
			s.updatePrompt()
		},
	}

	// ShowCmd shows the decoded records.
	ShowCmd = ishell.Cmd{
		Name:    "show",
		Aliases: []string{"s"},
		Help:    "[sensor|attitude|rate|ping]",
		Func: func(c *ishell.Context) {
			p := ShellFrom(c).Parser
			what := "all"
			if len(c.Args) > 0 {
				what = c.Args[0]
			}
			switch what {
			case "sensor":
				Print(c, &p.Sensor)
			case "attitude":
				Print(c, &p.Attitude)
			case "rate":
				Print(c, &p.AttitudeRate)
			case "ping":
				Print(c, &p.Ping)
			case "all":
				Print(c, map[string]interface{}{
					"sensor":        &p.Sensor,
					"attitude":      &p.Attitude,
					"attitude_rate": &p.AttitudeRate,
					"ping":          &p.Ping,
				})
			default:
				c.Err(fmt.Errorf("unknown record %q", what))
			}
		},
	}

	// FaultsCmd shows fault counters.
	FaultsCmd = ishell.Cmd{
		Name: "faults",
		Help: "",
		Func: func(c *ishell.Context) {
			Print(c, ShellFrom(c).Faults.Snapshot())
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s, err := New(env.NewConfig())
	if err != nil {
		log.Fatalln(err)
	}
	s.Run(flag.Args()...)
}
