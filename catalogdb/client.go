// Package catalogdb stores the route catalog in SQLite and can seed it from
// a GTFS static feed.
package catalogdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"makro.app/internal/logging"
)

// Client is the main entry point for the library
type Client struct {
	config        Config
	DB            *sql.DB
	logger        *slog.Logger
	importRuntime time.Duration
}

// NewClient opens the database described by config and creates the catalog tables.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create catalog database: %w", err)
	}

	logger := slog.Default().With(slog.String("component", "catalogdb"))
	if config.verbose {
		logger.Info("catalog tables ready", slog.String("path", config.DBPath))
	}

	return &Client{
		config: config,
		DB:     db,
		logger: logger,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// DownloadAndStore downloads a GTFS static zip from url and replaces the catalog with it.
func (c *Client) DownloadAndStore(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "gtfs_download_body")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading GTFS from %s: status %d", url, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return c.processAndStoreGTFSData(ctx, b)
}

// ImportFromFile imports a local GTFS static zip, replacing the catalog.
func (c *Client) ImportFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return c.processAndStoreGTFSData(ctx, data)
}

// ImportRuntime reports how long the last GTFS import took.
func (c *Client) ImportRuntime() time.Duration {
	return c.importRuntime
}
