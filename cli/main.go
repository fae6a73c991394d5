// Package main provides a command line client for the marketplace gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/adapter/chain"
	"github.com/xiaot623/gogo/marketplace/internal/client"
	"github.com/xiaot623/gogo/marketplace/internal/config"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

func main() {
	cfg := config.Load()

	apiURL := flag.String("api", cfg.APIURL, "Gateway base URL")
	list := flag.Bool("list", false, "List agents and exit")
	agentID := flag.Uint("agent", 1, "Agent ID to query")
	query := flag.String("query", "", "Query text")
	wallet := flag.String("wallet", "", "Wallet address paying for the query")
	watch := flag.Bool("watch", false, "Follow the interaction over a websocket instead of polling")
	interval := flag.Duration("interval", 2*time.Second, "Polling interval")
	attempts := flag.Int("attempts", 30, "Maximum polling attempts")
	flag.Parse()

	log.SetFlags(log.Ltime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.NewClient(*apiURL, 30*time.Second)

	if *list {
		if err := listAgents(ctx, c); err != nil {
			log.Fatalf("Failed to list agents: %v", err)
		}
		return
	}

	if *query == "" || *wallet == "" {
		fmt.Fprintln(os.Stderr, "usage: cli -agent ID -query TEXT -wallet ADDRESS [-watch]")
		os.Exit(2)
	}

	res, err := c.Submit(ctx, domain.QueryRequest{
		AgentID:       uint32(*agentID),
		Query:         *query,
		WalletAddress: *wallet,
	})
	if err != nil {
		log.Fatalf("Query rejected: %v", err)
	}
	fmt.Printf("Interaction %d accepted, estimated time %ds\n", res.InteractionID, res.EstimatedTime)

	var in *domain.Interaction
	if *watch {
		in, err = c.Watch(ctx, res.InteractionID, func(ev domain.InteractionEvent) {
			if ev.Interaction != nil {
				fmt.Printf("[%s] status=%s\n", ev.Type, ev.Interaction.Status)
			}
		})
	} else {
		in, err = c.Poll(ctx, res.InteractionID, *interval, *attempts)
	}

	switch {
	case errors.Is(err, client.ErrPollTimeout):
		fmt.Printf("Interaction %d is still pending, check again later\n", res.InteractionID)
		return
	case err != nil:
		log.Fatalf("Failed to get result: %v", err)
	}

	fmt.Printf("\nStatus: %s\nFee paid: %s\n\n%s\n", in.Status, chain.FormatPrice(in.FeePaid), in.DisplayText())
}

func listAgents(ctx context.Context, c *client.Client) error {
	agents, err := c.ListAgents(ctx)
	if err != nil {
		return err
	}

	for _, a := range agents {
		state := "active"
		if !a.Active {
			state = "inactive"
		}
		fmt.Printf("%3d  %-22s %-16s %12s  %s\n", a.ID, a.Name, a.Capability, chain.FormatPrice(a.PricePerQuery), state)
	}
	return nil
}
