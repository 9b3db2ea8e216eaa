// Command inspect dumps the badger store for debugging. It opens the
// database read-only with the lock guard bypassed, so it can run next
// to a live server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (chat:, msg:, pending:, unread:, userchat:)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db")
	}

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(val []byte) error {
				table.Append([]string{key, kindOf(key), detailOf(key, val)})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	color.New(color.FgGreen).Printf("%d entries under prefix %q\n\n", rows, *prefix)
	table.Render()
}

func kindOf(key string) string {
	kind, _, found := strings.Cut(key, ":")
	if !found {
		return "?"
	}
	return strings.ToUpper(kind)
}

// detailOf summarizes a value without committing to its full schema.
// Index entries carry no value worth printing.
func detailOf(key string, val []byte) string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m struct {
			SenderID    string `json:"sender_id"`
			RecipientID string `json:"recipient_id"`
			Content     string `json:"content"`
			Status      string `json:"status"`
		}
		if err := json.Unmarshal(val, &m); err != nil {
			return "unmarshal failed"
		}
		content := m.Content
		if len(content) > 40 {
			content = content[:40] + "…"
		}
		return fmt.Sprintf("%s -> %s [%s] %s", m.SenderID, m.RecipientID, m.Status, content)
	case strings.HasPrefix(key, "chat:"):
		var c struct {
			Participants [2]string `json:"participants"`
			ListingID    string    `json:"listing_id"`
		}
		if err := json.Unmarshal(val, &c); err != nil {
			return "unmarshal failed"
		}
		if c.ListingID != "" {
			return fmt.Sprintf("%s <-> %s (listing %s)", c.Participants[0], c.Participants[1], c.ListingID)
		}
		return fmt.Sprintf("%s <-> %s", c.Participants[0], c.Participants[1])
	default:
		return string(val)
	}
}
