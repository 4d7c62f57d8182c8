// Package schemasrc is the external collaborator that sources DDL files
// from the upstream MusicBrainz server repository and executes them
// against the mirror. It is deliberately narrow: the replication and
// ingest engine only ever calls Client.ApplySchemaChange or
// Client.RunScript, never reaches for an HTTP client directly.
// Grounded on original_source/src/download/github.rs (download_musicbrainz_sql
// / download_schema_update) and original_source/src/init.rs (run_sql_file).
package schemasrc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// defaultRawBaseURL is the raw-content mirror of metabrainz/musicbrainz-server,
// matching the repository original_source/src/download/github.rs downloads from.
const defaultRawBaseURL = "https://raw.githubusercontent.com/metabrainz/musicbrainz-server/master"

// Client downloads and executes MusicBrainz DDL scripts.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Pool    *pgxpool.Pool
}

// NewClient returns a Client using the default upstream base URL.
func NewClient(pool *pgxpool.Pool) *Client {
	return &Client{BaseURL: defaultRawBaseURL, HTTP: http.DefaultClient, Pool: pool}
}

// ApplySchemaChange downloads the upgrade script for seq and runs it
// against the mirror, advancing the schema by exactly one version. It
// tries admin/sql/updates/{seq}.sql first and, if that download fails,
// admin/sql/update/schema-change/{seq}.all.sql.
func (c *Client) ApplySchemaChange(ctx context.Context, seq int) error {
	path := fmt.Sprintf("admin/sql/updates/%d.sql", seq)
	// musicbrainz-server historically renamed this directory; keep both
	// forms since either may be live depending on server version.
	body, err := c.fetch(ctx, path)
	if err != nil {
		path = fmt.Sprintf("admin/sql/update/schema-change/%d.all.sql", seq)
		body, err = c.fetch(ctx, path)
		if err != nil {
			return err
		}
	}
	defer body.Close()
	return c.runSQL(ctx, body)
}

// RunScript downloads and executes a single named file under admin/sql,
// used by the bootstrap ordering in internal/ingest.
func (c *Client) RunScript(ctx context.Context, relPath string) error {
	body, err := c.fetch(ctx, "admin/sql/"+relPath)
	if err != nil {
		return err
	}
	defer body.Close()
	return c.runSQL(ctx, body)
}

func (c *Client) fetch(ctx context.Context, relPath string) (io.ReadCloser, error) {
	url := strings.TrimRight(c.BaseURL, "/") + "/" + relPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", relPath)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", relPath)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status %d downloading %s", resp.StatusCode, relPath)
	}
	return resp.Body, nil
}

// runSQL executes a downloaded .sql file as a single multi-statement Exec,
// after stripping psql meta-commands (lines beginning with "\"), then resets
// the search_path to musicbrainz afterward, matching
// original_source/src/musicbrainz_db/sql_helpers.rs::run_sql_file.
func (c *Client) runSQL(ctx context.Context, r io.Reader) error {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), `\`) {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading sql script")
	}

	if _, err := c.Pool.Exec(ctx, sb.String()); err != nil {
		return errors.Wrap(err, "executing sql script")
	}
	if _, err := c.Pool.Exec(ctx, "SET search_path TO musicbrainz, public"); err != nil {
		log.WithError(err).Warn("could not reset search_path after script")
	}
	return nil
}
