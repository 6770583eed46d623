package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/common"
	"github.com/dmitrijs2005/drivesync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateOrUpdate upserts the node row, appends/refreshes the active revision
// row, marks superseded revisions obsolete and repoints the active-revision
// pointer. Upsert-by-primary-key makes a duplicated commit converge on the
// same single node and single active revision. The dirty marker is cleared:
// a record that just came through the commit path is trusted by definition.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, link *models.Link, inheritsOfflineAvailable bool) error {
	var shareID *string
	if link.SharingDetails != nil {
		shareID = &link.SharingDetails.ShareID
	}
	var contentKeyPacket, contentKeyPacketSignature *string
	if link.FileProperties != nil {
		contentKeyPacket = &link.FileProperties.ContentKeyPacket
		contentKeyPacketSignature = &link.FileProperties.ContentKeyPacketSignature
	}
	var nodeHashKey *string
	if link.FolderProperties != nil {
		nodeHashKey = &link.FolderProperties.NodeHashKey
	}

	query := `INSERT INTO nodes (
			link_id, parent_link_id, type, name, name_signature_email, hash, state,
			expiration_time, size, mime_type, attributes, permissions,
			node_key, node_passphrase, node_passphrase_signature, signature_email,
			create_time, modify_time, trashed, share_id, nb_urls, active_urls, urls_expired,
			xattr, content_key_packet, content_key_packet_signature, node_hash_key,
			inherits_offline_available, dirty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(link_id) DO UPDATE SET
			parent_link_id = excluded.parent_link_id,
			type = excluded.type,
			name = excluded.name,
			name_signature_email = excluded.name_signature_email,
			hash = excluded.hash,
			state = excluded.state,
			expiration_time = excluded.expiration_time,
			size = excluded.size,
			mime_type = excluded.mime_type,
			attributes = excluded.attributes,
			permissions = excluded.permissions,
			node_key = excluded.node_key,
			node_passphrase = excluded.node_passphrase,
			node_passphrase_signature = excluded.node_passphrase_signature,
			signature_email = excluded.signature_email,
			create_time = excluded.create_time,
			modify_time = excluded.modify_time,
			trashed = excluded.trashed,
			share_id = excluded.share_id,
			nb_urls = excluded.nb_urls,
			active_urls = excluded.active_urls,
			urls_expired = excluded.urls_expired,
			xattr = excluded.xattr,
			content_key_packet = excluded.content_key_packet,
			content_key_packet_signature = excluded.content_key_packet_signature,
			node_hash_key = excluded.node_hash_key,
			inherits_offline_available = excluded.inherits_offline_available,
			dirty = 0
	`
	_, err := r.db.ExecContext(ctx, query,
		link.LinkID, link.ParentLinkID, link.Type, link.Name, link.NameSignatureEmail, link.Hash, link.State,
		link.ExpirationTime, link.Size, link.MIMEType, link.Attributes, link.Permissions,
		link.NodeKey, link.NodePassphrase, link.NodePassphraseSignature, link.SignatureEmail,
		link.CreateTime, link.ModifyTime, link.Trashed, shareID, link.NbURLs, link.ActiveURLs, link.URLsExpired,
		link.XAttr, contentKeyPacket, contentKeyPacketSignature, nodeHashKey,
		boolToInt(inheritsOfflineAvailable))
	if err != nil {
		return fmt.Errorf("failed to upsert node: %w", err)
	}

	if link.FileProperties == nil {
		return nil
	}

	rev := link.FileProperties.ActiveRevision
	query = `INSERT INTO revisions (id, link_id, create_time, size, manifest_signature, signature_address, state, thumbnail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			link_id = excluded.link_id,
			create_time = excluded.create_time,
			size = excluded.size,
			manifest_signature = excluded.manifest_signature,
			signature_address = excluded.signature_address,
			state = excluded.state,
			thumbnail = excluded.thumbnail
	`
	_, err = r.db.ExecContext(ctx, query,
		rev.ID, link.LinkID, rev.CreateTime, rev.Size, rev.ManifestSignature, rev.SignatureAddress, rev.State, rev.Thumbnail)
	if err != nil {
		return fmt.Errorf("failed to upsert revision: %w", err)
	}

	// Previous revisions are superseded, never deleted.
	_, err = r.db.ExecContext(ctx,
		`UPDATE revisions SET state = ? WHERE link_id = ? AND id != ? AND state = ?`,
		models.RevisionStateObsolete, link.LinkID, rev.ID, models.RevisionStateActive)
	if err != nil {
		return fmt.Errorf("failed to supersede revisions: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE nodes SET active_revision_id = ? WHERE link_id = ?`, rev.ID, link.LinkID)
	if err != nil {
		return fmt.Errorf("failed to repoint active revision: %w", err)
	}
	return nil
}

// GetByID reconstructs the canonical record, joining the active revision row
// when the node has one.
func (r *SQLiteRepository) GetByID(ctx context.Context, linkID string) (*models.Link, error) {
	query := `SELECT link_id, parent_link_id, type, name, name_signature_email, hash, state,
			expiration_time, size, mime_type, attributes, permissions,
			node_key, node_passphrase, node_passphrase_signature, signature_email,
			create_time, modify_time, trashed, share_id, nb_urls, active_urls, urls_expired,
			xattr, content_key_packet, content_key_packet_signature, node_hash_key, active_revision_id
		FROM nodes WHERE link_id = ?`

	link := &models.Link{}
	var shareID, contentKeyPacket, contentKeyPacketSignature, nodeHashKey, activeRevisionID *string
	err := r.db.QueryRowContext(ctx, query, linkID).Scan(
		&link.LinkID, &link.ParentLinkID, &link.Type, &link.Name, &link.NameSignatureEmail, &link.Hash, &link.State,
		&link.ExpirationTime, &link.Size, &link.MIMEType, &link.Attributes, &link.Permissions,
		&link.NodeKey, &link.NodePassphrase, &link.NodePassphraseSignature, &link.SignatureEmail,
		&link.CreateTime, &link.ModifyTime, &link.Trashed, &shareID, &link.NbURLs, &link.ActiveURLs, &link.URLsExpired,
		&link.XAttr, &contentKeyPacket, &contentKeyPacketSignature, &nodeHashKey, &activeRevisionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", linkID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select node: %w", err)
	}

	if shareID != nil {
		link.SharingDetails = &models.SharingDetails{ShareID: *shareID}
	}
	if nodeHashKey != nil {
		link.FolderProperties = &models.FolderProperties{NodeHashKey: *nodeHashKey}
	}
	if contentKeyPacket != nil && activeRevisionID != nil {
		rev := models.RevisionSummary{}
		err := r.db.QueryRowContext(ctx,
			`SELECT id, create_time, size, manifest_signature, signature_address, state, thumbnail
			 FROM revisions WHERE id = ?`, *activeRevisionID).Scan(
			&rev.ID, &rev.CreateTime, &rev.Size, &rev.ManifestSignature, &rev.SignatureAddress, &rev.State, &rev.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("failed to select active revision: %w", err)
		}
		fp := &models.FileProperties{
			ContentKeyPacket: *contentKeyPacket,
			ActiveRevision:   rev,
		}
		if contentKeyPacketSignature != nil {
			fp.ContentKeyPacketSignature = *contentKeyPacketSignature
		}
		link.FileProperties = fp
	}
	return link, nil
}

// OfflineAvailable reports marked-or-inherited offline availability.
func (r *SQLiteRepository) OfflineAvailable(ctx context.Context, linkID string) (bool, error) {
	var marked, inherits int
	err := r.db.QueryRowContext(ctx,
		`SELECT marked_offline_available, inherits_offline_available FROM nodes WHERE link_id = ?`,
		linkID).Scan(&marked, &inherits)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read offline availability: %w", err)
	}
	return marked == 1 || inherits == 1, nil
}

// InheritsOfflineAvailable reports the stored inheritance flag.
func (r *SQLiteRepository) InheritsOfflineAvailable(ctx context.Context, linkID string) (bool, error) {
	var inherits int
	err := r.db.QueryRowContext(ctx,
		`SELECT inherits_offline_available FROM nodes WHERE link_id = ?`, linkID).Scan(&inherits)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read inheritance flag: %w", err)
	}
	return inherits == 1, nil
}

// GetDirtyIDs lists nodes flagged as not trusted, oldest first by rowid so a
// resumed pass proceeds in a stable order.
func (r *SQLiteRepository) GetDirtyIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT link_id FROM nodes WHERE dirty = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to select dirty nodes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepository) CountDirty(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE dirty = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count dirty nodes: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MarkDirty(ctx context.Context, linkIDs []string) error {
	if len(linkIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(linkIDs)), ", ")
	args := make([]any, len(linkIDs))
	for i, id := range linkIDs {
		args[i] = id
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE nodes SET dirty = 1 WHERE link_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark nodes dirty: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkAllDirty(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE nodes SET dirty = 1`); err != nil {
		return fmt.Errorf("failed to mark all nodes dirty: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface check.
var _ Repository = (*SQLiteRepository)(nil)
