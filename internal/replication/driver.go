package replication

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/oknozor/Musicbrainz-pg-light/internal/archive"
	"github.com/oknozor/Musicbrainz-pg-light/internal/mberr"
	"github.com/oknozor/Musicbrainz-pg-light/internal/metrics"
	"github.com/oknozor/Musicbrainz-pg-light/internal/pgcopy"
	"github.com/oknozor/Musicbrainz-pg-light/internal/schemasrc"
	"github.com/oknozor/Musicbrainz-pg-light/internal/types"
)

// entry names inside a replication packet, as produced by the upstream
// mirror tool. pending_data/pending_keys are matched by base name since
// their containing directory is not meaningful here (the mbdump/ prefix
// belongs only to full-export dumps, not replication packets).
const (
	entrySchemaSequence      = "SCHEMA_SEQUENCE"
	entryReplicationSequence = "REPLICATION_SEQUENCE"
	entryTimestamp           = "TIMESTAMP"
	entryPendingData         = "pending_data"
	entryPendingKeys         = "pending_keys"
)

// Fetcher retrieves a replication packet body by URL. It is the sole
// network-facing seam of the driver, generalized from the teacher's SQL
// selectTimestamp polling query to an HTTP fetch of an ordered packet.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body io.ReadCloser, notFound bool, err error)
}

// HTTPFetcher fetches packets over plain HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, bool, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "building packet request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false, errors.Wrap(err, "fetching replication packet")
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, false, errors.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	return resp.Body, false, nil
}

// Driver implements the replication-packet state machine: fetch the next
// ordered packet, verify schema/sequence continuity against the locally
// recorded control row, stage and apply its queued mutations inside
// per-transaction batches, then advance the control row. Generalized from
// the teacher's resolver (internal/source/cdc/resolver.go), which performs
// the analogous fetch/verify/apply/advance cycle over resolved
// timestamps instead of replication packets.
type Driver struct {
	Settings types.SettingsProvider
	Control  *Control
	Store    types.PendingStore
	Applier  *Applier
	Schema   *schemasrc.Client
	Fetcher  Fetcher
	Pool     *pgxpool.Pool
}

// PrepareForSync drops the tablename_exists constraint dbmirror2 leaves
// on pending_data from older bootstraps, a one-time fixup that must run
// before the first packet of a sync session is applied. It is idempotent
// and safe to call on every startup.
func (d *Driver) PrepareForSync(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, `ALTER TABLE dbmirror2.pending_data DROP CONSTRAINT IF EXISTS tablename_exists`)
	return errors.Wrap(err, "dropping tablename_exists constraint")
}

// ApplyPendingReplication fetches and applies exactly one replication
// packet, advancing the control row on success. It returns
// mberr.ErrNotFound when the upstream has no packet at the next sequence
// yet, which callers treat as "caught up" rather than a failure.
func (d *Driver) ApplyPendingReplication(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.PacketApplyDurations.WithLabelValues().Observe(time.Since(start).Seconds()) }()

	if err := d.resumeInterruptedApply(ctx); err != nil {
		return err
	}

	control, err := d.Control.Load(ctx)
	if err != nil {
		return err
	}

	nextSeq := control.CurrentReplicationSequence + 1
	url := fmt.Sprintf("%s/replication-%d.tar.bz2", strings.TrimRight(d.Settings.ReplicationBaseURL(), "/"), nextSeq)
	if token := d.Settings.AccessToken(); token != "" {
		url += "?token=" + token
	}

	body, notFound, err := d.Fetcher.Fetch(ctx, url)
	if notFound {
		return errors.WithStack(mberr.ErrNotFound)
	}
	if err != nil {
		return err
	}
	defer body.Close()

	packet, err := d.scanPacket(body)
	if err != nil {
		return err
	}

	if packet.replicationSequence != nextSeq {
		return mberr.NewSequenceMismatch(nextSeq, packet.replicationSequence)
	}
	if packet.schemaSequence != control.CurrentSchemaSequence {
		if packet.schemaSequence != control.CurrentSchemaSequence+1 {
			return mberr.NewSchemaMismatch(control.CurrentSchemaSequence, packet.schemaSequence)
		}
		if err := d.Schema.ApplySchemaChange(ctx, packet.schemaSequence); err != nil {
			return errors.Wrapf(err, "applying schema change %d", packet.schemaSequence)
		}
	}

	if err := d.applyPendingData(ctx); err != nil {
		return err
	}

	control.CurrentReplicationSequence = packet.replicationSequence
	control.CurrentSchemaSequence = packet.schemaSequence
	control.LastReplicationDate = &packet.timestamp
	if err := d.Control.Save(ctx, control); err != nil {
		return err
	}

	metrics.PacketsApplied.WithLabelValues(strconv.Itoa(control.CurrentSchemaSequence)).Inc()
	log.WithFields(log.Fields{
		"replication_sequence": control.CurrentReplicationSequence,
		"schema_sequence":      control.CurrentSchemaSequence,
		"timestamp":            control.LastReplicationDate,
	}).Info("applied replication packet")
	return nil
}

// resumeInterruptedApply drains any pending-data rows already staged by a
// previous run that crashed before finishing application of the current
// packet (after scanPacket's COPY, before the control row was advanced).
// Left unhandled, the next run would re-fetch and re-stage the same
// packet on top of these survivors; draining them first means the
// surviving rows are applied exactly once before any new packet is
// fetched.
func (d *Driver) resumeInterruptedApply(ctx context.Context) error {
	rows, err := d.Store.LoadPendingData(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	log.Info("resuming interrupted replication apply from leftover pending data")
	if err := d.applyPendingData(ctx); err != nil {
		return err
	}

	// The leftover rows belonged to the packet after the recorded one, so
	// the cursor moves past it before the next fetch.
	control, err := d.Control.Load(ctx)
	if err != nil {
		return err
	}
	control.CurrentReplicationSequence++
	return d.Control.Save(ctx, control)
}

// applyPendingData loads every queued row dbmirror2 now holds (staged by
// scanPacket's COPY of the packet's pending_data and pending_keys
// entries), groups it by source transaction, applies
// each group atomically, then truncates the staging tables so a retried
// run after a crash never re-applies already-committed work.
func (d *Driver) applyPendingData(ctx context.Context) error {
	rows, err := d.Store.LoadPendingData(ctx)
	if err != nil {
		return err
	}
	keys, err := d.Store.LoadPendingKeys(ctx)
	if err != nil {
		return err
	}
	batches := GroupByXid(rows)
	if err := d.Applier.ApplyBatches(ctx, batches, keys); err != nil {
		return err
	}
	return d.Store.Truncate(ctx)
}

type packetHeader struct {
	schemaSequence      int
	replicationSequence int
	timestamp           time.Time
}

// scanPacket walks a packet's tar entries, parsing the three control
// files and streaming the two pending-data dump files into their staging
// tables via COPY, per the replication-packet apply algorithm.
func (d *Driver) scanPacket(body io.Reader) (packetHeader, error) {
	var hdr packetHeader
	r := archive.NewReader(body)

	conn, err := d.Pool.Acquire(context.Background())
	if err != nil {
		return hdr, errors.Wrap(err, "acquiring connection for packet copy")
	}
	defer conn.Release()
	sink := pgcopy.NewSink(conn.Conn())

	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return hdr, err
		}

		switch path.Base(entry.Name) {
		case entrySchemaSequence:
			hdr.schemaSequence, err = readInt(entry)
		case entryReplicationSequence:
			hdr.replicationSequence, err = readInt(entry)
		case entryTimestamp:
			hdr.timestamp, err = readTimestamp(entry)
		case entryPendingData:
			_, err = sink.CopyEntry(context.Background(), "dbmirror2", "pending_data", entry, nil)
		case entryPendingKeys:
			_, err = sink.CopyEntry(context.Background(), "dbmirror2", "pending_keys", entry, nil)
		default:
			continue
		}
		if err != nil {
			return hdr, errors.Wrapf(err, "reading packet entry %s", entry.Name)
		}
	}

	if hdr.replicationSequence == 0 {
		return hdr, mberr.NewMissingPendingData(entryReplicationSequence)
	}
	return hdr, nil
}

func readInt(r io.Reader) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "reading integer entry")
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	return v, errors.Wrap(err, "parsing integer entry")
}
