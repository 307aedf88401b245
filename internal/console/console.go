// Package console provides the operator's interactive command line.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"

	"github.com/nerrad567/iot-command-core/internal/audit"
	"github.com/nerrad567/iot-command-core/internal/command"
	"github.com/nerrad567/iot-command-core/internal/device"
)

// commandTimeout bounds each console command, lookups and publish included.
const commandTimeout = 15 * time.Second

// Devices is the device lookup used by the console.
type Devices interface {
	GetDevice(ctx context.Context, id string) (*device.Device, error)
	Cached() []device.Entry
}

// Commands is the command surface used by the console.
type Commands interface {
	SetProperty(ctx context.Context, d device.Device, itemID string, value any, label string) (command.Ack, error)
	InvokeFunction(ctx context.Context, d device.Device, itemID string, value any, label string) (command.Ack, error)
	SetMonitoring(ctx context.Context, d device.Device, enabled bool) (command.Ack, error)
	InitiateOTA(ctx context.Context, d device.Device) (command.Ack, error)
}

// History lists recorded commands. It may be nil.
type History interface {
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// Console runs operator commands against the command core.
type Console struct {
	devices  Devices
	commands Commands
	history  History
	rl       *readline.Instance
}

// New creates a console. history may be nil.
func New(devices Devices, commands Commands, history History) *Console {
	return &Console{devices: devices, commands: commands, history: history}
}

// Attach sets the console's collaborators. It lets the console own the
// terminal before the services it drives are built.
func (c *Console) Attach(devices Devices, commands Commands, history History) {
	c.devices = devices
	c.commands = commands
	c.history = history
}

// Open attaches the console to the terminal. Output written to Stdout
// afterwards does not corrupt the prompt.
func (c *Console) Open() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "commandcore> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		HistoryLimit:    500,
	})
	if err != nil {
		return fmt.Errorf("creating readline: %w", err)
	}
	c.rl = rl
	return nil
}

// Close restores the terminal. It is safe to call more than once and
// before Open.
func (c *Console) Close() error {
	if c.rl == nil {
		return nil
	}
	err := c.rl.Close()
	c.rl = nil
	return err
}

// Stdout returns a writer that cooperates with the prompt.
func (c *Console) Stdout() io.Writer {
	if c.rl == nil {
		return io.Discard
	}
	return c.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is done. cancel is called when
// the operator quits so the service shuts down.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.Close() //nolint:errcheck // terminal restore on exit

	out := c.rl.Stdout()
	c.printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Exec(ctx, line, out); quit {
			cancel()
			return
		}
	}
}

// Exec runs one command line, writing results to out. It reports whether
// the operator asked to quit.
func (c *Console) Exec(ctx context.Context, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var err error
	switch cmd {
	case "help", "?":
		c.printHelp(out)
	case "quit", "exit", "q":
		return true
	case "device", "d":
		err = c.cmdDevice(ctx, args, out)
	case "devices", "ls":
		c.cmdDevices(out)
	case "set", "s":
		err = c.cmdItem(ctx, args, out, c.commands.SetProperty)
	case "invoke", "call":
		err = c.cmdItem(ctx, args, out, c.commands.InvokeFunction)
	case "monitor", "m":
		err = c.cmdMonitor(ctx, args, out)
	case "ota":
		err = c.cmdOTA(ctx, args, out)
	case "history", "h":
		err = c.cmdHistory(ctx, args, out)
	default:
		err = fmt.Errorf("unknown command %q (type 'help')", cmd)
	}

	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
	return false
}

func (c *Console) printHelp(out io.Writer) {
	fmt.Fprint(out, `Commands:
  device <id>                         fetch a device and show its reachability
  devices                             list devices fetched so far
  set <id> <item> <value> [label]     write a property
  invoke <id> <item> <value> [label]  call a function
  monitor <id> on|off                 start or stop real-time monitoring
  ota <id>                            push the latest firmware
  history [id]                        show recent commands
  help                                show this help
  quit                                exit
`)
}

func (c *Console) fetch(ctx context.Context, id string) (device.Device, error) {
	d, err := c.devices.GetDevice(ctx, id)
	if err != nil {
		return device.Device{}, err
	}
	return *d, nil
}

func (c *Console) cmdDevice(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: device <id>")
	}
	d, err := c.fetch(ctx, args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Device:\t%s %s\n", d.DeviceID, d.DeviceName)
	fmt.Fprintf(tw, "Product:\t%s %s\n", d.ProductID, d.ProductName)
	fmt.Fprintf(tw, "Serial:\t%s\n", d.SerialNumber)
	fmt.Fprintf(tw, "Firmware:\t%s\n", d.FirmwareVersion)
	fmt.Fprintf(tw, "Status:\t%s (shadow %v)\n", d.Status, d.ShadowEnabled)
	fmt.Fprintf(tw, "Reachability:\t%s\n", device.Classify(d))
	return tw.Flush()
}

func (c *Console) cmdDevices(out io.Writer) {
	entries := c.devices.Cached()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No devices fetched yet. Use 'device <id>'.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tSERIAL\tSTATUS\tREACHABILITY\tFETCHED")
	for _, e := range entries {
		d := e.Device
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.DeviceID, d.ProductID, d.SerialNumber, d.Status, device.Classify(d),
			e.FetchedAt.Format(time.TimeOnly))
	}
	tw.Flush() //nolint:errcheck // terminal output
}

type itemFunc func(ctx context.Context, d device.Device, itemID string, value any, label string) (command.Ack, error)

func (c *Console) cmdItem(ctx context.Context, args []string, out io.Writer, run itemFunc) error {
	if len(args) < 3 {
		return errors.New("usage: set|invoke <id> <item> <value> [label]")
	}
	d, err := c.fetch(ctx, args[0])
	if err != nil {
		return err
	}
	label := strings.Join(args[3:], " ")

	ack, err := run(ctx, d, args[1], args[2], label)
	if err != nil {
		return err
	}
	printAck(out, ack)
	return nil
}

func (c *Console) cmdMonitor(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: monitor <id> on|off")
	}
	var enabled bool
	switch strings.ToLower(args[1]) {
	case "on", "start":
		enabled = true
	case "off", "stop":
	default:
		return fmt.Errorf("monitor: expected on or off, got %q", args[1])
	}

	d, err := c.fetch(ctx, args[0])
	if err != nil {
		return err
	}
	ack, err := c.commands.SetMonitoring(ctx, d, enabled)
	if err != nil {
		return err
	}
	printAck(out, ack)
	return nil
}

func (c *Console) cmdOTA(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: ota <id>")
	}
	d, err := c.fetch(ctx, args[0])
	if err != nil {
		return err
	}
	ack, err := c.commands.InitiateOTA(ctx, d)
	if err != nil {
		return err
	}
	printAck(out, ack)
	return nil
}

func (c *Console) cmdHistory(ctx context.Context, args []string, out io.Writer) error {
	if c.history == nil {
		return errors.New("command history is not available")
	}
	filter := audit.Filter{Action: audit.ActionCommand, Limit: 20}
	if len(args) > 0 {
		filter.EntityID = args[0]
	}

	res, err := c.history.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(res.Logs) == 0 {
		fmt.Fprintln(out, "No commands recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tDEVICE\tOUTCOME\tLABEL")
	for _, l := range res.Logs {
		label, _ := l.Details["label"].(string)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			l.CreatedAt.Local().Format(time.DateTime), l.EntityID, l.Outcome, label)
	}
	fmt.Fprintf(tw, "(%d of %d)\n", len(res.Logs), res.Total)
	return tw.Flush()
}

func printAck(out io.Writer, ack command.Ack) {
	fmt.Fprintf(out, "Published %s to %s\n", ack.MessageID, ack.Topic)
}
