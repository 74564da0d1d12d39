package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/dancavallaro/gesture-recorder/pkg/console"
	"github.com/dancavallaro/gesture-recorder/pkg/serialio"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const Required = "<REQUIRED>"

func listPorts() int {
	ports, err := serialio.ListPorts()
	if err != nil {
		log.Println(err)
		return 1
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return 0
}

func readAndPrint(ctx context.Context, port *serialio.Port) error {
	for ctx.Err() == nil {
		ev := port.Poll()
		switch ev.Kind {
		case serialio.Line:
			log.Printf("Listened message: %s\n", ev.Line)
		case serialio.Undecodable:
			log.Printf("Undecodable message: %q\n", ev.Raw)
		case serialio.TransportError:
			return ev.Err
		case serialio.EndOfStream:
			return nil
		}
	}
	return nil
}

func main() {
	device := flag.String("device", Required, "serial device to read from")
	baud := flag.Int("baud", 115200, "baudrate to use")
	list := flag.Bool("list", false, "list available serial ports and exit")
	flag.Parse()

	console.SetupLog("[serial] ")

	if *list {
		os.Exit(listPorts())
	}
	if *device == Required {
		log.Fatalln("must specify path to device!")
	}

	port, err := serialio.Open(serialio.Config{Device: *device, Baud: *baud, ReadTimeout: time.Second})
	if err != nil {
		log.Fatalf("Error opening serial port: %v.\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = readAndPrint(ctx, port)
	stop()
	port.Close()

	if err != nil {
		log.Fatalf("Serial port failure: %v\n", err)
	}
	log.Println("-- Stopped serial port listening --")
}
