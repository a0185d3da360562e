package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/forest33/framescope/adapter/pcap"
	"github.com/forest33/framescope/adapter/pcapfile"
	"github.com/forest33/framescope/business/entity"
)

const (
	commandDevices = "devices"
	commandDecode  = "decode"
	commandHelp    = "help"
)

type commandData struct {
	file        string
	summaryOnly bool
}

func parseCommandLine() {
	var (
		err     error
		fs      *flag.FlagSet
		data    = &commandData{}
		command = os.Args[1]
	)

	commandHandlers := map[string]func(*commandData){
		commandDevices: handlerDevices,
		commandDecode:  handlerDecode,
	}

	switch command {
	case commandDevices:
		fs = flag.NewFlagSet(commandDevices, flag.ExitOnError)
	case commandDecode:
		fs = flag.NewFlagSet(commandDecode, flag.ExitOnError)
		fs.StringVar(&data.file, "file", "", "pcap or pcapng file to decode")
		fs.BoolVar(&data.summaryOnly, "summary", false, "print summary lines only")
	case commandHelp:
		printHelp()
		os.Exit(0)
	default:
		fmt.Printf("Unknown command %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err = fs.Parse(os.Args[2:]); err != nil {
		zlog.Fatal(err)
	}

	commandHandlers[command](data)
}

func handlerDevices(_ *commandData) {
	devices, err := pcap.New(zlog).ListDevices()
	if err != nil {
		zlog.Fatalf("failed to list capture devices: %v", err)
	}
	for _, d := range devices {
		fmt.Println(d)
	}
}

func handlerDecode(data *commandData) {
	path := data.file
	if path == "" {
		path = cfg.Capture.File
	}
	if path == "" {
		zlog.Fatalf("%v: -file", entity.ErrCommandArgumentRequired)
	}

	source := pcapfile.New(&pcapfile.Config{Path: path}, zlog)
	sess, err := source.Open(path, cfg.Capture.SnapshotLength, false, 0)
	if err != nil {
		zlog.Fatalf("failed to open capture file: %v", err)
	}

	state, err := snifferUseCase.Replay(ctx, sess, func(rec *entity.ReportRecord) {
		fmt.Printf("#%d %s %s\n", rec.ID, rec.Timestamp.Format(time.RFC3339Nano), rec.Summary)
		if !data.summaryOnly {
			fmt.Printf("%s\n\n", rec.Detail)
		}
	})
	if err != nil {
		zlog.Fatalf("failed to decode capture file: %v", err)
	}

	zlog.Info().
		Str("file", path).
		Uint64("frames", state.Frames).
		Uint64("reports", state.Reports).
		Uint64("malformed", state.Malformed).
		Msg("capture file decoded")
}

func printHelp() {
	fmt.Printf("Usage: ./sniffer command args\n")
	fmt.Printf(" devices	- list capture devices\n")
	fmt.Printf(" decode	- decode a capture file and print the reports\n")
	fmt.Printf(" help	- show this help\n")
	fmt.Printf("Without a command the sniffer captures from the configured device or file.\n")
	fmt.Printf("Get help for a specific command: ./sniffer command -h\n")
}
