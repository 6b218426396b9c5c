package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/geocoder89/eventprint/internal/printer"
	"github.com/geocoder89/eventprint/internal/render"
)

type sendOpts struct {
	ip      string
	port    int
	file    string
	timeout time.Duration
}

func newSendCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var o sendOpts

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a label file to a raw TCP printer",
		Long: `Send a ZPL label to a printer on the local network.

Examples:
  badgectl send --ip 192.168.1.40 --file badge.zpl
  curl ... /station/print | badgectl send --ip 192.168.1.40 --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, o, logger(cmd))
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.ip, "ip", "", "printer address")
	f.IntVar(&o.port, "port", printer.DefaultPort, "printer port")
	f.StringVarP(&o.file, "file", "f", "", "label file, - for stdin")
	f.DurationVar(&o.timeout, "timeout", printer.DefaultTimeout, "connect and write timeout")
	_ = cmd.MarkFlagRequired("ip")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSend(cmd *cobra.Command, o sendOpts, log *slog.Logger) error {
	if o.port < 1 || o.port > 65535 {
		return fmt.Errorf("--port %d out of range", o.port)
	}

	var data []byte
	var err error
	if o.file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(o.file)
	}
	if err != nil {
		return fmt.Errorf("read label: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("label is empty")
	}

	engine := render.NewEngine(render.Deps{Sender: printer.NewTransport(o.timeout), Log: log})
	d, err := engine.Send(cmd.Context(), printer.Addr(o.ip, o.port), data)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent %d bytes to %s\n", len(data), d.Addr)
	return nil
}
