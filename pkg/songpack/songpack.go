// Package songpack duplicates custom song folders and turns the copies into single-saber songs.
package songpack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"github.com/BrokenLinc/single-saberize/pkg/converter"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Options controls a batch run
type Options struct {
	Prefix          string // Prepended to every duplicated folder name
	NameSuffix      string // Appended to the song name of every converted song
	GenerateMissing bool   // Synthesize tiers the song does not ship
	Jobs            int    // Song folders processed at once
}

// Report counts what a run did
type Report struct {
	SongsProcessed   int
	SongsSkipped     int
	FilesConverted   int
	FilesFailed      int
	TiersSynthesized int
}

// Add accumulates o into r
func (r *Report) Add(o Report) {
	r.SongsProcessed += o.SongsProcessed
	r.SongsSkipped += o.SongsSkipped
	r.FilesConverted += o.FilesConverted
	r.FilesFailed += o.FilesFailed
	r.TiersSynthesized += o.TiersSynthesized
}

// Processor runs the song folder pipeline
type Processor struct {
	conv   *converter.Converter
	opts   Options
	logger *log.Logger
}

// New creates a processor. Jobs below one run songs one at a time.
func New(conv *converter.Converter, opts Options, logger *log.Logger) *Processor {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Processor{conv: conv, opts: opts, logger: logger}
}

// songFolders lists the entries of songsDir that still need a single-saber copy
func (p *Processor) songFolders(songsDir string) ([]string, error) {
	entries, err := os.ReadDir(songsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fault.Wrap(err, fmsg.With("songs folder not found"), ftag.With(ftag.NotFound))
		}
		return nil, fault.Wrap(err, fmsg.With("cannot list songs folder"))
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, p.opts.Prefix) || !e.IsDir() {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ProcessSongs duplicates every song folder in songsDir and converts the copies.
// A failing song is logged and counted; only an unreadable songsDir or a
// cancelled context fails the run.
func (p *Processor) ProcessSongs(ctx context.Context, songsDir string) (*Report, error) {
	names, err := p.songFolders(songsDir)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Processing custom songs", "count", len(names))

	var (
		mu     sync.Mutex
		report Report
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Jobs)

	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := p.duplicateAndProcess(songsDir, name)
			mu.Lock()
			report.Add(r)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &report, fault.Wrap(err, fmsg.With("song processing interrupted"))
	}
	if err := ctx.Err(); err != nil {
		return &report, fault.Wrap(err, fmsg.With("song processing interrupted"))
	}
	return &report, nil
}

func (p *Processor) duplicateAndProcess(songsDir, name string) Report {
	src := filepath.Join(songsDir, name)
	dst := filepath.Join(songsDir, p.opts.Prefix+name)

	if _, err := os.Stat(dst); err == nil {
		p.logger.Warn("Single-saber copy already exists, skipping", "folder", dst)
		return Report{SongsSkipped: 1}
	}
	if err := CopyDir(dst, src); err != nil {
		p.logger.Error("Could not duplicate song folder", "folder", src, "err", err)
		return Report{SongsSkipped: 1}
	}
	return p.ProcessFolder(dst)
}

// CopyDir copies the tree at src to dst, which must not exist yet
func CopyDir(dst, src string) error {
	if _, err := os.Stat(dst); err == nil {
		return fault.Wrap(os.ErrExist, fmsg.With(dst), ftag.With(ftag.AlreadyExists))
	}
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return fault.Wrap(err, fmsg.With("copy "+src))
	}
	return nil
}

// ProcessFolder converts the song in folder in place. Without an info file
// directly inside it, subfolders are searched.
func (p *Processor) ProcessFolder(folder string) Report {
	infoPath := filepath.Join(folder, converter.InfoFileName)
	if _, err := os.Stat(infoPath); err == nil {
		p.logger.Debug("Found info file", "folder", folder)
		return p.processSong(folder, infoPath)
	}

	p.logger.Debug("No info file, searching subdirectories", "folder", folder)
	entries, err := os.ReadDir(folder)
	if err != nil {
		p.logger.Error("Could not list folder", "folder", folder, "err", err)
		return Report{SongsSkipped: 1}
	}

	var report Report
	for _, e := range entries {
		if e.IsDir() {
			report.Add(p.ProcessFolder(filepath.Join(folder, e.Name())))
		}
	}
	return report
}

func (p *Processor) processSong(folder, infoPath string) Report {
	var report Report

	info, err := converter.ReadInfo(infoPath)
	if err != nil {
		p.logger.Error("Could not read info, aborting song", "file", infoPath, "err", err)
		report.SongsSkipped++
		return report
	}
	if info.OneSaber {
		p.logger.Debug("Already a single-saber song, skipping", "file", infoPath)
		report.SongsSkipped++
		return report
	}

	info.OneSaber = true
	info.SongName += p.opts.NameSuffix

	if p.opts.GenerateMissing {
		report.TiersSynthesized += p.fillMissingTiers(folder, info)
	}

	data, err := info.Bytes()
	if err == nil {
		err = converter.WriteFileAtomic(infoPath, data)
	}
	if err != nil {
		p.logger.Error("Could not write info, aborting song", "file", infoPath, "err", err)
		report.SongsSkipped++
		return report
	}
	p.logger.Info("Updated info, converting difficulties", "file", infoPath)

	for _, level := range info.DifficultyLevels {
		if err := p.convertLevel(folder, info, level); err != nil {
			p.logger.Error("Difficulty not converted", "song", info.SongName, "difficulty", level.Difficulty, "err", err)
			report.FilesFailed++
			continue
		}
		report.FilesConverted++
	}
	report.SongsProcessed++
	return report
}

func (p *Processor) convertLevel(folder string, info *converter.Info, level converter.DifficultyLevel) error {
	d, err := level.Tier()
	if err != nil {
		return fault.Wrap(err, ftag.With(ftag.InvalidArgument))
	}
	path := filepath.Join(folder, level.JSONPath)
	if _, err := os.Stat(path); err != nil {
		return fault.Wrap(err, fmsg.With("difficulty file missing"), ftag.With(ftag.NotFound))
	}

	result, err := p.conv.ConvertFile(path, "", d, info.BeatsPerMinute)
	if err != nil {
		return fault.Wrap(err, fmsg.With(level.JSONPath))
	}
	p.logger.Info("Updated difficulty", "file", path,
		"notes", result.NotesOut, "left", result.Hands[beatmap.Left], "right", result.Hands[beatmap.Right])
	return nil
}

// fillMissingTiers writes a synthesized candidate file for every tier the song lacks
// and adds an info entry for it. Only tiers the song originally shipped with a
// file on disk act as sources.
func (p *Processor) fillMissingTiers(folder string, info *converter.Info) int {
	listed := make(map[beatmap.Difficulty]bool)
	shipped := make(map[beatmap.Difficulty]converter.DifficultyLevel)
	for _, l := range info.DifficultyLevels {
		d, err := l.Tier()
		if err != nil {
			continue
		}
		listed[d] = true
		if _, dup := shipped[d]; dup {
			continue
		}
		if _, err := os.Stat(filepath.Join(folder, l.JSONPath)); err != nil {
			p.logger.Debug("Difficulty file missing, not a synthesis source", "difficulty", d, "file", l.JSONPath)
			continue
		}
		shipped[d] = l
	}
	exists := func(d beatmap.Difficulty) bool {
		_, ok := shipped[d]
		return ok
	}

	synthesized := 0
	for _, target := range beatmap.Difficulties() {
		if listed[target] {
			continue
		}
		source, err := p.conv.GetTiers().SourceFor(target, exists)
		if err != nil {
			p.logger.Debug("Tier not synthesized", "difficulty", target, "reason", err)
			continue
		}
		sourceLevel := shipped[source.Difficulty]

		data, err := os.ReadFile(filepath.Join(folder, sourceLevel.JSONPath))
		if err != nil {
			p.logger.Error("Could not read source difficulty", "difficulty", source.Difficulty, "err", err)
			continue
		}
		result, err := p.conv.SynthesizeDifficulty(data, source.Difficulty, target, sourceLevel.Offset, info.BeatsPerMinute)
		if err != nil {
			p.logger.Error("Could not synthesize difficulty", "difficulty", target, "err", err)
			continue
		}

		fileName := converter.DifficultyFileName(target)
		if err := converter.WriteFileAtomic(filepath.Join(folder, fileName), result.Data); err != nil {
			p.logger.Error("Could not write synthesized difficulty", "file", fileName, "err", err)
			continue
		}
		info.DifficultyLevels = append(info.DifficultyLevels, sourceLevel.Derive(target, fileName))
		p.logger.Debugf("%d %s notes derived from %d %s notes", result.NotesOut, target, result.NotesIn, source.Difficulty)
		synthesized++
	}
	return synthesized
}
