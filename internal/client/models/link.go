package models

// LinkType is the remote object type.
type LinkType int

const (
	LinkTypeFolder LinkType = 1
	LinkTypeFile   LinkType = 2
)

// LinkState is the lifecycle state of a remote object.
type LinkState int

const (
	LinkStateDraft   LinkState = 0
	LinkStateActive  LinkState = 1
	LinkStateTrashed LinkState = 2
)

// RevisionState is the lifecycle state of a single revision.
type RevisionState int

const (
	RevisionStateDraft    RevisionState = 0
	RevisionStateActive   RevisionState = 1
	RevisionStateObsolete RevisionState = 2
)

// RevisionSummary is the short form of a revision carried inside a link's
// file properties: exactly the fields needed to represent the currently
// active revision.
type RevisionSummary struct {
	ID                string        `json:"ID"`
	CreateTime        int64         `json:"CreateTime"`
	Size              int64         `json:"Size"`
	ManifestSignature string        `json:"ManifestSignature"`
	SignatureAddress  string        `json:"SignatureAddress"`
	State             RevisionState `json:"State"`
	Thumbnail         int           `json:"Thumbnail"`
}

// FileProperties carries the file-specific portion of a link, including the
// active revision. A link of type file without file properties is malformed.
type FileProperties struct {
	ContentKeyPacket          string          `json:"ContentKeyPacket"`
	ContentKeyPacketSignature string          `json:"ContentKeyPacketSignature"`
	ActiveRevision            RevisionSummary `json:"ActiveRevision"`
}

// FolderProperties carries the folder-specific portion of a link.
type FolderProperties struct {
	NodeHashKey string `json:"NodeHashKey"`
}

// SharingDetails is remote-authoritative sharing state; preserved verbatim
// when rebasing a link on fetched metadata.
type SharingDetails struct {
	ShareID string `json:"ShareID"`
}

// Link is the canonical node record: the authoritative shape of one remote
// object as understood by the client. A link has exactly one active revision;
// previous revisions are superseded, not deleted.
type Link struct {
	LinkID       string   `json:"LinkID"`
	ParentLinkID string   `json:"ParentLinkID"`
	Type         LinkType `json:"Type"`

	Name               string    `json:"Name"`
	NameSignatureEmail string    `json:"NameSignatureEmail"`
	Hash               string    `json:"Hash"`
	State              LinkState `json:"State"`

	ExpirationTime *int64 `json:"ExpirationTime"`
	Size           int64  `json:"Size"`
	MIMEType       string `json:"MIMEType"`
	Attributes     int64  `json:"Attributes"`
	Permissions    int64  `json:"Permissions"`

	NodeKey                 string `json:"NodeKey"`
	NodePassphrase          string `json:"NodePassphrase"`
	NodePassphraseSignature string `json:"NodePassphraseSignature"`
	SignatureEmail          string `json:"SignatureEmail"`

	CreateTime int64  `json:"CreateTime"`
	ModifyTime int64  `json:"ModifyTime"`
	Trashed    *int64 `json:"Trashed"`

	SharingDetails *SharingDetails `json:"SharingDetails"`
	NbURLs         int             `json:"NbUrls"`
	ActiveURLs     int             `json:"ActiveUrls"`
	URLsExpired    int             `json:"UrlsExpired"`

	XAttr *string `json:"XAttr"`

	FileProperties   *FileProperties   `json:"FileProperties"`
	FolderProperties *FolderProperties `json:"FolderProperties"`
}

// ActiveRevisionID returns the id of the active revision, or "" for links
// without file properties (folders, malformed metadata).
func (l *Link) ActiveRevisionID() string {
	if l.FileProperties == nil {
		return ""
	}
	return l.FileProperties.ActiveRevision.ID
}
