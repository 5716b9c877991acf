package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse [PATH]",
	Short: "List files on the server",
	Long: `List a directory on the server.

Without PATH, lists the home folders (uploads, ${Videos}, ${Music}) and
the server's drives. Entries print as full paths that can be passed to
'mpvctl open'.

--filter ranks entries by fuzzy match against the given text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringP("filter", "F", "", "Only show entries fuzzy matching this text, best first")
}

// homeFolders are the shortcuts shown above the server's drives.
var homeFolders = []mpvremote.FileEntry{
	{Name: "uploads", Type: mpvremote.FileDirectory},
	{Name: "${Videos}", Type: mpvremote.FileDirectory},
	{Name: "${Music}", Type: mpvremote.FileDirectory},
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var path string
	if len(args) == 1 {
		path = strings.TrimSuffix(args[0], "/")
	}

	listing, err := a.client.Browse(ctx, path)
	if err != nil {
		return commandError("browse", err)
	}

	entries := listing.Files
	if path == "" {
		entries = append(append([]mpvremote.FileEntry{}, homeFolders...), entries...)
	}

	if filter, _ := cmd.Flags().GetString("filter"); filter != "" {
		entries = filterEntries(filter, entries)
	}

	for _, e := range entries {
		fmt.Println(formatEntry(path, e))
	}
	return nil
}

// joinPath appends name to a server directory path.
func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// formatEntry renders one listing line: a type marker and the full path.
func formatEntry(dir string, e mpvremote.FileEntry) string {
	full := joinPath(dir, e.Name)
	switch e.Type {
	case mpvremote.FileDirectory:
		return "d " + full + "/"
	case mpvremote.FileVideo:
		return "v " + full
	case mpvremote.FileAudio:
		return "a " + full
	default:
		return "- " + full
	}
}

// filterEntries keeps entries whose name fuzzy matches query, closest
// match first. Ties keep listing order.
func filterEntries(query string, entries []mpvremote.FileEntry) []mpvremote.FileEntry {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	ranks := fuzzy.RankFindFold(query, names)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]mpvremote.FileEntry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, entries[r.OriginalIndex])
	}
	return out
}
