// Package geoip handles downloading, updating, and reading MaxMind GeoLite2 databases
// used to tag the queried server with its country.
package geoip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/vars"
)

// downloadTimeout bounds a whole database download.
const downloadTimeout = 2 * time.Minute

// EnsureDB checks if the GeoIP database exists at the specified path and if it is recent enough.
// If the file is missing or older than maxAge, it downloads a new copy from the provided URL.
func EnsureDB(ctx context.Context, path, url string, maxAge time.Duration) error {
	info, err := os.Stat(path)

	switch {
	case err == nil:
		if time.Since(info.ModTime()) < maxAge {
			log.Info().Str("path", path).Msg("GeoIP database is up to date")
			return nil
		}
		log.Info().Str("path", path).Dur("age", time.Since(info.ModTime())).Msg("GeoIP database is outdated, updating...")
	case os.IsNotExist(err):
		log.Info().Str("path", path).Msg("GeoIP database missing, downloading...")
	default:
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	return downloadFile(ctx, path, url)
}

// downloadFile writes url to path through a temporary file, so a failed
// download never replaces a working database.
func downloadFile(ctx context.Context, path, url string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", vars.UserAgent())

	resp, err := http.DefaultClient.Do(req) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	tmpPath := path + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return err
	}

	log.Info().Str("path", path).Int64("bytes", n).Msg("GeoIP database downloaded")
	return nil
}
