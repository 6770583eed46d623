package models

import "time"

// NewFileParameters is the request body of the create-file call. The commit
// engine reads it back from the correlation cache on the no-conflict path:
// it is the only source of the freshly created node's name and key material.
type NewFileParameters struct {
	ParentLinkID              string `json:"ParentLinkID"`
	Name                      string `json:"Name"`
	Hash                      string `json:"Hash"`
	MIMEType                  string `json:"MIMEType"`
	NodeKey                   string `json:"NodeKey"`
	NodePassphrase            string `json:"NodePassphrase"`
	NodePassphraseSignature   string `json:"NodePassphraseSignature"`
	SignatureAddress          string `json:"SignatureAddress"`
	ContentKeyPacket          string `json:"ContentKeyPacket"`
	ContentKeyPacketSignature string `json:"ContentKeyPacketSignature"`
}

// NewFile is the success payload of the create-file call: the id of the new
// node and of its draft revision. On conflict paths it is synthesized from
// the conflict response instead.
type NewFile struct {
	ID         string `json:"ID"`
	RevisionID string `json:"RevisionID"`
}

// NewRevision is the success payload of the create-revision call.
type NewRevision struct {
	ID string `json:"ID"`
}

// BlockToken references one uploaded block in a revision manifest.
type BlockToken struct {
	Index int    `json:"Index"`
	Token string `json:"Token"`
}

// RevisionCommitParameters is the request body of the finalize-revision call:
// the manifest signature, signer address and encrypted extended attributes
// that turn a draft revision into the active one.
type RevisionCommitParameters struct {
	ManifestSignature string       `json:"ManifestSignature"`
	SignatureAddress  string       `json:"SignatureAddress"`
	XAttr             *string      `json:"XAttr"`
	BlockList         []BlockToken `json:"BlockList,omitempty"`
}

// Revision is the full revision metadata returned by the fetch-revision call
// (the download flow's source of truth).
type Revision struct {
	ID                string        `json:"ID"`
	CreateTime        int64         `json:"CreateTime"`
	Size              int64         `json:"Size"`
	ManifestSignature string        `json:"ManifestSignature"`
	SignatureAddress  string        `json:"SignatureAddress"`
	State             RevisionState `json:"State"`
	Thumbnail         int           `json:"Thumbnail"`
	XAttr             *string       `json:"XAttr"`
}

// Summary converts full revision metadata to the short form embedded in a
// link's file properties.
func (r Revision) Summary() RevisionSummary {
	return RevisionSummary{
		ID:                r.ID,
		CreateTime:        r.CreateTime,
		Size:              r.Size,
		ManifestSignature: r.ManifestSignature,
		SignatureAddress:  r.SignatureAddress,
		State:             r.State,
		Thumbnail:         r.Thumbnail,
	}
}

// ExtendedAttributes is the cleartext form of a revision's XAttr blob.
type ExtendedAttributes struct {
	Common struct {
		ModificationTime string `json:"ModificationTime"`
		Size             int64  `json:"Size"`
	} `json:"Common"`
}

// ItemTemplate carries the caller-supplied size and timestamps of the local
// item being uploaded; the commit engine folds them into the canonical record.
type ItemTemplate struct {
	Size             int64
	CreationDate     time.Time
	ModificationDate time.Time
}

// CreationUnix returns the creation time as a unix timestamp, falling back to
// the modification date and then to now, mirroring the upload commit rules.
func (t ItemTemplate) CreationUnix(now time.Time) int64 {
	if !t.CreationDate.IsZero() {
		return t.CreationDate.Unix()
	}
	if !t.ModificationDate.IsZero() {
		return t.ModificationDate.Unix()
	}
	return now.Unix()
}

// ModificationUnix returns the modification time as a unix timestamp, falling
// back to the creation time.
func (t ItemTemplate) ModificationUnix(now time.Time) int64 {
	if !t.ModificationDate.IsZero() {
		return t.ModificationDate.Unix()
	}
	return t.CreationUnix(now)
}
