package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// Backup snapshots the lock directory into archive. Slots stay encrypted,
// so no password is needed.
func Backup(ctx context.Context, opts Options, archive, note string) {
	e := setup(opts)
	defer e.close()

	snap, err := e.vault.Backup(ctx, archive, note)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Snapshot %s: %d file(s), %s\n", snap.ID, snap.Files, humanize.Bytes(uint64(snap.Size)))
	if !snap.Healthy {
		fmt.Fprintln(os.Stderr, "warning: the vault failed its integrity check; the snapshot is marked unhealthy")
	}
}

// Backups lists the snapshots in archive, or deletes one.
func Backups(opts Options, archive, deleteID string) {
	e := setup(opts)
	defer e.close()

	if deleteID != "" {
		if err := e.vault.DeleteBackup(archive, deleteID); err != nil {
			HandleError(err)
		}
		fmt.Printf("Snapshot %s deleted\n", deleteID)
		return
	}

	snaps, err := e.vault.Backups(archive)
	if err != nil {
		HandleError(err)
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tFILES\tSIZE\tHEALTH\tNOTE")
	for _, snap := range snaps {
		health := "ok"
		if !snap.Healthy {
			health = "damaged"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			snap.ID, humanize.Time(snap.Created), snap.Files, humanize.Bytes(uint64(snap.Size)), health, snap.Note)
	}
	w.Flush()
}

// Restore replaces the lock directory with a snapshot from archive.
func Restore(ctx context.Context, opts Options, archive, id string) {
	e := setup(opts)
	defer e.close()

	snap, err := e.vault.Restore(ctx, archive, id)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("Restored snapshot %s (%s)\n", snap.ID, humanize.Time(snap.Created))
}
