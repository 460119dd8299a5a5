// Command inspect opens the store read-only and prints conversations and
// their most recent messages. Operational tooling, no server required.
package main

import (
	"fmt"
	"log"
	"os"

	"chat-core/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	MessagesPer    int    `envconfig:"MESSAGES_PER_CONVERSATION" default:"10"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("config error: ", err)
	}

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	conversationRepo := repositories.NewConversationRepository(db)
	messageRepo := repositories.NewMessageRepository(db)

	conversations, err := conversationRepo.List()
	if err != nil {
		log.Fatal("Error listing conversations: ", err)
	}

	color.Bold.Printf("%d conversation(s)\n\n", len(conversations))

	for _, conv := range conversations {
		participants, err := conversationRepo.Participants(conv.ID)
		if err != nil {
			log.Fatal("Error listing participants: ", err)
		}

		name := conv.Name
		if name == "" {
			name = string(conv.Type)
		}
		color.Cyan.Printf("%s  %s  (last activity %s)\n", conv.ID, name, conv.LastActivity.Format("2006-01-02 15:04:05"))
		for _, p := range participants {
			state := "active"
			if !p.Active {
				state = "left"
			}
			fmt.Printf("  - %s (%s)\n", p.UserID, state)
		}

		messages, err := messageRepo.ListPage(conv.ID, 1, cfg.MessagesPer)
		if err != nil {
			log.Fatal("Error listing messages: ", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"At", "Sender", "Lang", "Content"})
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		for _, m := range messages {
			table.Append([]string{
				m.CreatedAt.Format("15:04:05.000"),
				m.SenderID,
				m.Language,
				m.Content,
			})
		}
		table.Render()
		fmt.Println()
	}
}
