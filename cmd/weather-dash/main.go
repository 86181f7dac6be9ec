package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/i474232898/weather-timeline/internal/chatclient"
	"github.com/i474232898/weather-timeline/internal/config"
	"github.com/i474232898/weather-timeline/internal/timeline"
)

const usage = `Type a question such as "weather in Paris" to load a city.
Commands:
  scroll <px>   move the strip to an absolute offset
  tap <index>   select an hour directly
  now           return to the live hour
  show          print the current view
  quit          exit`

func main() {
	cfg, err := config.LoadDashboard()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := chatclient.New(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.ServiceURL)
	core := timeline.NewCore(ctx, client,
		timeline.WithItemPitch(cfg.ItemPitch),
		timeline.WithSettleDelay(cfg.SettleDelay),
		timeline.WithQueryTimeout(cfg.QueryTimeout),
		timeline.WithScroller(timeline.ScrollerFunc(func(offset float64) {
			log.Printf("DEBUG: strip scrolled to %.0fpx", offset)
		})),
	)

	frames := make(chan timeline.Frame, 16)
	loop := timeline.NewLoop(core, func(f timeline.Frame) {
		select {
		case frames <- f:
		default:
			// The printer is behind; the next frame supersedes this one.
		}
	})

	go func() {
		for f := range frames {
			render(os.Stdout, f)
		}
	}()

	go func() {
		readCommands(ctx, loop)
		stop()
	}()

	fmt.Println(usage)
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("ERROR: dashboard stopped: %v", err)
	}
}

func readCommands(ctx context.Context, loop *timeline.Loop) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		switch strings.ToLower(cmd) {
		case "":
			continue
		case "quit", "exit":
			return
		case "help":
			fmt.Println(usage)
		case "show":
			loop.Refresh()
		case "now":
			loop.ReturnToNow()
		case "scroll":
			offset, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			if err != nil {
				fmt.Println("usage: scroll <px>")
				continue
			}
			loop.Scroll(offset)
		case "tap":
			index, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				fmt.Println("usage: tap <index>")
				continue
			}
			loop.Tap(index)
		default:
			loop.Submit(line)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("ERROR: reading input: %v", err)
	}
}
