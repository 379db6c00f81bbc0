package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/natsbus"
)

type eventsOptions struct {
	url   string
	topic string
}

func parseEventsArgs(args []string) (eventsOptions, error) {
	opts := eventsOptions{
		url:   os.Getenv("SOLOSUCCESS_NATS_URL"),
		topic: natsbus.TopicEventsAll,
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-nats":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing value for -nats")
			}
			i++
			opts.url = args[i]
		case "-workflow":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing value for -workflow")
			}
			i++
			opts.topic = natsbus.TopicEventsWorkflow(args[i])
		case "-only":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing value for -only")
			}
			i++
			switch args[i] {
			case "workflows":
				opts.topic = natsbus.TopicEventsWorkflows
			case "chats":
				opts.topic = natsbus.TopicEventsChats
			case "agents":
				opts.topic = natsbus.TopicEventsAgents
			default:
				return opts, fmt.Errorf("unknown event kind %q (want workflows, chats or agents)", args[i])
			}
		default:
			return opts, fmt.Errorf("unknown flag %s", args[i])
		}
	}
	if opts.url == "" {
		opts.url = nats.DefaultURL
	}
	return opts, nil
}

func runEvents(args []string) error {
	opts, err := parseEventsArgs(args)
	if err != nil {
		return err
	}
	url, topic := opts.url, opts.topic

	client, err := natsbus.NewClientFromURL(url)
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.Subscribe(topic, func(msg *nats.Msg) {
		printEvent(os.Stdout, msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	defer sub.Unsubscribe()
	if err := client.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	fmt.Fprintf(os.Stderr, "listening on %s (%s)\n", topic, url)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}

func printEvent(w io.Writer, subject string, data []byte) {
	var ev natsbus.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		fmt.Fprintf(w, "%s\t(invalid payload: %v)\n", subject, err)
		return
	}

	keys := make([]string, 0, len(ev.Data))
	for k := range ev.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", k, ev.Data[k]))
	}

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ev.Timestamp, subject, ev.Type, strings.Join(fields, " "))
}
