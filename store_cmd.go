package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"

	"web2view/bridge"
	"web2view/kvstore"
)

var errUsage = errors.New("usage")

// runStoreCommand inspects or edits the game's store file. Reads and writes
// go through the bridge dispatcher so the CLI sees exactly what the page
// would.
func runStoreCommand(args []string, st *kvstore.Store, out io.Writer) error {
	if len(args) == 0 {
		storeUsage(out)
		return errUsage
	}

	switch args[0] {
	case "get":
		if len(args) != 2 || args[1] == "" {
			return fmt.Errorf("store get takes exactly one KEY")
		}
		return storeGet(st, args[1], out)
	case "set":
		if len(args) != 3 || args[1] == "" {
			return fmt.Errorf("store set takes KEY and a JSON VALUE")
		}
		return storeSet(st, args[1], args[2], out)
	case "clear":
		storeClear(st, out)
		return nil
	case "list":
		return storeList(st, out)
	case "path":
		fmt.Fprintln(out, st.Path())
		return nil
	default:
		storeUsage(out)
		return fmt.Errorf("unknown store command: %s", args[0])
	}
}

func storeUsage(out io.Writer) {
	fmt.Fprintf(out, "Usage: web2view store <command>\n\nCommands:\n"+
		"  get KEY          Print the stored value for KEY\n"+
		"  set KEY VALUE    Store a JSON VALUE under KEY\n"+
		"  clear            Remove the session keys (user, stay, staytoken)\n"+
		"  list             List all keys\n"+
		"  path             Print the store file location\n")
}

// captureSender keeps the last outbound message.
type captureSender struct {
	last *bridge.Outbound
}

func (c *captureSender) Send(msg bridge.Outbound) {
	c.last = &msg
}

func offlineDispatcher(st *kvstore.Store, sender bridge.Sender) *bridge.Dispatcher {
	return bridge.NewDispatcher(st, sender, bridge.NewEntitlement(nil, 0, nil), nil, nil)
}

func storeGet(st *kvstore.Store, key string, out io.Writer) error {
	sender := &captureSender{}
	offlineDispatcher(st, sender).Handle(map[string]any{"type": bridge.CmdRestore, "key": key})
	if sender.last == nil {
		return fmt.Errorf("no value for %q", key)
	}
	data, err := encodeValue(sender.last.Value)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, data)
	return nil
}

func storeSet(st *kvstore.Store, key, raw string, out io.Writer) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return fmt.Errorf("VALUE must be JSON: %w", err)
	}
	offlineDispatcher(st, &captureSender{}).Handle(map[string]any{"type": bridge.CmdStore, "key": key, "value": value})
	color.New(color.FgGreen).Fprint(out, "stored ")
	fmt.Fprintf(out, "%q\n", key)
	return nil
}

func storeClear(st *kvstore.Store, out io.Writer) {
	offlineDispatcher(st, &captureSender{}).Handle(map[string]any{"type": bridge.CmdClearStore})
	color.New(color.FgGreen).Fprint(out, "cleared ")
	fmt.Fprintln(out, "session keys")
}

func storeList(st *kvstore.Store, out io.Writer) error {
	data := st.Load()
	if len(data) == 0 {
		fmt.Fprintln(out, "store is empty")
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, k := range keys {
		v, err := encodeValue(data[k])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", k, v)
	}
	return w.Flush()
}

func encodeValue(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding value: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
