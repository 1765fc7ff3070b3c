package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fixoo-app/fixoo/internal/model"
)

// mediaKind buckets a MIME type into the kinds the app displays.
func mediaKind(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "photo"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	}
	return "document"
}

func cmdMediaAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("media-add")
	path := fs.String("file", "", "file to attach")
	name := fs.String("name", "", "display name (defaults to file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("need -file")
	}
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(*path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", *path)
	}
	mt, err := mimetype.DetectFile(abs)
	if err != nil {
		return fmt.Errorf("detect type: %w", err)
	}
	if *name == "" {
		*name = filepath.Base(abs)
	}

	m := model.Media{
		Kind:     mediaKind(mt.String()),
		URL:      "file://" + filepath.ToSlash(abs),
		Name:     *name,
		MimeType: mt.String(),
		Size:     info.Size(),
	}
	if !a.store.AddUserMedia(ctx, u.ID, &m) {
		return errors.New("could not save media")
	}
	return a.printJSON(m)
}

func cmdMediaList(ctx context.Context, a *app, _ []string) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(a.store.UserMedia(ctx, u.ID))
}

func cmdMediaRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("media-rm")
	id := fs.String("id", "", "media id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	if !a.store.RemoveUserMedia(ctx, u.ID, *id) {
		return fmt.Errorf("media %q not found", *id)
	}
	_, err = fmt.Fprintln(a.out, "removed")
	return err
}
