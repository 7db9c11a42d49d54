package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/popchain/popchain-core/internal/service"
	"github.com/popchain/popchain-core/internal/submit"
	"github.com/popchain/popchain-core/internal/whitelist"
)

var whitelistCMD = &cli.Command{
	Name:  "whitelist",
	Usage: "The event whitelist commands",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "Whitelist one email for an event",
			Flags: []cli.Flag{eventFlag, &cli.StringFlag{Name: "email", Required: true}},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				out, err := svc.AddToWhitelist(ctx.Context, ctx.String("event"), ctx.String("email"), choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
		{
			Name:  "remove",
			Usage: "Remove one email from an event whitelist",
			Flags: []cli.Flag{eventFlag, &cli.StringFlag{Name: "email", Required: true}},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				out, err := svc.RemoveFromWhitelist(ctx.Context, ctx.String("event"), ctx.String("email"), choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
		{
			Name:  "bulk",
			Usage: "Whitelist every email of a csv file, one at a time",
			Flags: []cli.Flag{
				eventFlag,
				&cli.StringFlag{Name: "file", Usage: "csv file, email in the first column", Required: true},
				&cli.IntFlag{Name: "offset", Usage: "skip the first n candidates of an interrupted run"},
			},
			Action: withService(bulkWhitelist),
		},
		{
			Name:  "history",
			Usage: "List on-chain whitelist changes of an event",
			Flags: []cli.Flag{eventFlag},
			Action: withService(func(ctx *cli.Context, svc *service.Service, _ submit.SignerChoice) error {
				changes, err := svc.ListWhitelistEvents(ctx.Context, ctx.String("event"))
				if err != nil {
					return err
				}
				return pretty(changes)
			}),
		},
	},
}

func bulkWhitelist(ctx *cli.Context, svc *service.Service, _ submit.SignerChoice) error {
	f, err := os.Open(ctx.String("file"))
	if err != nil {
		return errors.Wrap(err, "open candidates")
	}
	lines, err := whitelist.ParseCandidates(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	ch := make(chan whitelist.Progress, 16)
	job, err := svc.StartBulkWhitelist(ctx.Context, ctx.String("event"), lines, whitelist.StartOptions{
		Offset:   ctx.Int("offset"),
		Progress: ch,
	})
	if err != nil {
		return err
	}

	report := func(p whitelist.Progress) {
		status := "ok"
		if !p.Succeeded {
			status = p.Error.UserMessage()
		}
		fmt.Printf("[%d/%d] %s: %s\n", p.Position+1, len(lines), p.Candidate, status)
	}
	for {
		select {
		case p := <-ch:
			report(p)
		case <-job.Done():
			for len(ch) > 0 {
				report(<-ch)
			}
			tally, err := job.Wait()
			fmt.Printf("processed %d, succeeded %d, failed %d\n", tally.Processed, tally.Succeeded, tally.Failed)
			if err != nil {
				return errors.Wrapf(err, "run stopped, resume with --offset %d", job.Next())
			}
			return nil
		}
	}
}
