package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/drift/internal/ctl"
	"github.com/matheus3301/drift/internal/message"
	"github.com/matheus3301/drift/internal/session"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := ctl.New(session.SocketPath(sessionName))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "messages":
		cmdMessages(ctx, c, *jsonFlag)
	case "send":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: driftctl send <text>")
			os.Exit(1)
		}
		cmdSend(ctx, c, args[1])
	case "upload":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: driftctl upload <path> [folder]")
			os.Exit(1)
		}
		folder := ""
		if len(args) >= 3 {
			folder = args[2]
		}
		cmdUpload(ctx, c, args[1], folder, *jsonFlag)
	case "locate":
		cmdLocate(ctx, c, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: driftctl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                  Show session status")
	fmt.Fprintln(os.Stderr, "  messages                List the current message feed")
	fmt.Fprintln(os.Stderr, "  send <text>             Send a text message")
	fmt.Fprintln(os.Stderr, "  upload <path> [folder]  Upload a file and send it as an attachment")
	fmt.Fprintln(os.Stderr, "  locate                  Capture the device position and share it")
}

func cmdStatus(ctx context.Context, c *ctl.Client, jsonOut bool) {
	st, err := c.Status(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(st)
		return
	}
	online := "offline"
	if st.Online {
		online = "online"
	}
	fmt.Printf("Session:  %s\n", st.Session)
	fmt.Printf("Room:     %s\n", st.Room)
	fmt.Printf("State:    %s (%s)\n", st.State, online)
	fmt.Printf("Messages: %d\n", st.Messages)
	fmt.Printf("Uptime:   %dms\n", st.UptimeMS)
}

func cmdMessages(ctx context.Context, c *ctl.Client, jsonOut bool) {
	msgs, err := c.Messages(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(msgs)
		return
	}
	if len(msgs) == 0 {
		fmt.Println("No messages.")
		return
	}
	for _, m := range msgs {
		fmt.Println(formatMessage(m))
	}
}

func formatMessage(m message.Message) string {
	ts := m.CreatedAt.Local().Format("2006-01-02 15:04")
	body := m.Text
	switch {
	case m.ImageURL != "":
		body = "[image] " + m.ImageURL
	case m.Location != nil:
		body = fmt.Sprintf("[location] %.5f, %.5f", m.Location.Latitude, m.Location.Longitude)
	}
	if m.System {
		return fmt.Sprintf("%s * %s", ts, body)
	}
	return fmt.Sprintf("%s %s: %s", ts, m.Author.DisplayName, body)
}

func cmdSend(ctx context.Context, c *ctl.Client, text string) {
	if err := c.Send(ctx, text); err != nil {
		fail(err)
	}
	fmt.Println("Sent.")
}

func cmdUpload(ctx context.Context, c *ctl.Client, path, folder string, jsonOut bool) {
	url, err := c.Upload(ctx, path, folder)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(map[string]string{"url": url})
		return
	}
	fmt.Printf("Uploaded: %s\n", url)
}

func cmdLocate(ctx context.Context, c *ctl.Client, jsonOut bool) {
	loc, err := c.Locate(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(loc)
		return
	}
	fmt.Printf("Shared location: %.5f, %.5f\n", loc.Latitude, loc.Longitude)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
