// tallyctl is a terminal front-end for a running tally server. It goes
// through the typed client layer only and holds no rules of its own.
package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/tally/internal/apiclient"
	"github.com/dukerupert/tally/internal/model"
)

var cli struct {
	Server string `help:"Base URL of the tally server." env:"TALLY_SERVER" default:"http://localhost:8080"`

	Families FamiliesCmd `cmd:"" help:"List families."`
	Trackers TrackersCmd `cmd:"" help:"List trackers."`
	Toggle   ToggleCmd   `cmd:"" help:"Mark or un-mark a tracker for a date."`
	Month    MonthCmd    `cmd:"" help:"Show completions for a month."`
	Note     NoteCmd     `cmd:"" help:"Attach a note to an entry."`
	Reset    ResetCmd    `cmd:"" help:"Wipe all data and reseed the demo set."`
}

type app struct {
	ctx    context.Context
	client *apiclient.Client
}

func main() {
	k := kong.Parse(&cli,
		kong.Name("tallyctl"),
		kong.Description("Habit journal companion for the tally server"),
		kong.UsageOnError(),
	)

	a := &app{
		ctx:    context.Background(),
		client: apiclient.New(cli.Server),
	}
	k.FatalIfErrorf(k.Run(a))
}

type FamiliesCmd struct{}

func (c *FamiliesCmd) Run(a *app) error {
	families, err := a.client.Families(a.ctx)
	if err != nil {
		return err
	}
	for _, f := range families {
		icon := ""
		if f.Icon != nil {
			icon = *f.Icon + " "
		}
		fmt.Printf("%3d  %s%s\n", f.ID, icon, f.Name)
	}
	return nil
}

type TrackersCmd struct {
	All bool `help:"Include archived trackers."`
}

func (c *TrackersCmd) Run(a *app) error {
	trackers, err := a.client.Trackers(a.ctx)
	if err != nil {
		return err
	}
	for _, t := range trackers {
		if t.IsArchived && !c.All {
			continue
		}
		archived := ""
		if t.IsArchived {
			archived = " (archived)"
		}
		fmt.Printf("%3d  %-20s %s%s\n", t.ID, t.Name, t.Color, archived)
	}
	return nil
}

type ToggleCmd struct {
	Tracker int64  `required:"" help:"Tracker id."`
	Date    string `help:"Date (YYYY-MM-DD). Defaults to today."`
}

func (c *ToggleCmd) Run(a *app) error {
	date := c.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	// Find an existing entry so the client layer knows whether this toggle
	// means create or delete.
	entries, err := a.client.Entries(a.ctx, apiclient.EntryFilter{Date: date})
	if err != nil {
		return err
	}
	var existingID *int64
	for _, e := range entries {
		if e.TrackerID == c.Tracker {
			id := e.ID
			existingID = &id
			break
		}
	}

	entry, err := a.client.ToggleEntry(a.ctx, c.Tracker, date, existingID)
	if err != nil {
		return err
	}
	if entry == nil {
		fmt.Printf("tracker %d un-marked for %s\n", c.Tracker, date)
	} else {
		fmt.Printf("tracker %d marked done for %s (entry %d)\n", c.Tracker, date, entry.ID)
	}
	return nil
}

type MonthCmd struct {
	Month string `arg:"" help:"Month to show (YYYY-MM)."`
}

func (c *MonthCmd) Run(a *app) error {
	entries, err := a.client.Entries(a.ctx, apiclient.EntryFilter{Month: c.Month})
	if err != nil {
		return err
	}
	trackers, err := a.client.Trackers(a.ctx)
	if err != nil {
		return err
	}

	names := make(map[int64]string, len(trackers))
	for _, t := range trackers {
		names[t.ID] = t.Name
	}

	byDate := make(map[string][]model.TrackerEntry)
	for _, e := range entries {
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		fmt.Println(d)
		for _, e := range byDate[d] {
			name := names[e.TrackerID]
			if name == "" {
				name = fmt.Sprintf("tracker %d", e.TrackerID)
			}
			line := "  ✓ " + name
			if e.Note != nil {
				line += ": " + *e.Note
			}
			fmt.Println(line)
		}
	}
	return nil
}

type NoteCmd struct {
	Entry int64  `required:"" help:"Entry id."`
	Text  string `required:"" help:"Note text."`
}

func (c *NoteCmd) Run(a *app) error {
	entry, err := a.client.UpdateEntry(a.ctx, c.Entry, model.TrackerEntryPatch{Note: model.Some(c.Text)})
	if err != nil {
		return err
	}
	fmt.Printf("entry %d noted: %s\n", entry.ID, *entry.Note)
	return nil
}

type ResetCmd struct{}

func (c *ResetCmd) Run(a *app) error {
	if err := a.client.Reset(a.ctx); err != nil {
		return err
	}
	fmt.Println("all data reset to the demo set")
	return nil
}
