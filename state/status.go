package state

import "fmt"

// StatusLevel classifies a StatusMessage for display (color, icon).
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusWarn
	StatusError
)

// StatusMessage is the single-slot status line shown by the workbench,
// derived automatically from event kinds rather than set imperatively.
type StatusMessage struct {
	Level StatusLevel
	Text  string
}

// DeriveStatus is a pure function from the previous status and a new event
// to the next status. Events that do not carry user-relevant information
// (e.g. ViewChanged) leave the previous status untouched.
func DeriveStatus(prev StatusMessage, ev AppEvent) StatusMessage {
	switch e := ev.(type) {
	case Connecting:
		return info(fmt.Sprintf("connecting to %s…", e.ConnID))
	case Connected:
		return info(fmt.Sprintf("connected to %s", e.ConnID))
	case Disconnected:
		return info(fmt.Sprintf("disconnected from %s", e.ConnID))
	case ConnectionAdded:
		return info("connection added")
	case ConnectionUpdated:
		return info("connection updated")
	case ConnectionRemoved:
		return info("connection removed")
	case ConnectionFailed:
		return errMsg(fmt.Sprintf("connection failed: %v", e.Err))
	case DatabasesLoaded:
		return info(fmt.Sprintf("%d database(s) loaded", len(e.Databases)))
	case DatabasesFailed:
		return errMsg(fmt.Sprintf("failed to load databases: %v", e.Err))
	case CollectionsLoaded:
		return info("collections loaded")
	case CollectionsFailed:
		return errMsg(fmt.Sprintf("failed to load collections: %v", e.Err))
	case DocumentsLoaded:
		return info(fmt.Sprintf("%d document(s)", e.Total))
	case DocumentsLoadFailed:
		return errMsg(fmt.Sprintf("failed to load documents: %v", e.Err))
	case DocumentSaved:
		return info("document saved")
	case DocumentSaveFailed:
		return errMsg(fmt.Sprintf("failed to save document: %v", e.Err))
	case DocumentDeleted:
		return info("document deleted")
	case DocumentDeleteFailed:
		return errMsg(fmt.Sprintf("failed to delete document: %v", e.Err))
	case DocumentsInserted:
		return info(fmt.Sprintf("%d document(s) inserted", e.Count))
	case DocumentsUpdateFailed:
		return errMsg(fmt.Sprintf("update failed: %v", e.Err))
	case IndexesLoaded:
		return info("indexes loaded")
	case IndexesLoadFailed:
		return errMsg(fmt.Sprintf("failed to load indexes: %v", e.Err))
	case IndexCreated:
		return info(fmt.Sprintf("index %q created", e.Name))
	case IndexCreateFailed:
		return errMsg(fmt.Sprintf("failed to create index: %v", e.Err))
	case IndexDropped:
		return info(fmt.Sprintf("index %q dropped", e.Name))
	case IndexDropFailed:
		return errMsg(fmt.Sprintf("failed to drop index: %v", e.Err))
	case AggregationCompleted:
		return info("aggregation completed")
	case AggregationFailed:
		return errMsg(fmt.Sprintf("aggregation failed: %v", e.Err))
	case ViewChanged:
		return prev
	default:
		return prev
	}
}

func info(text string) StatusMessage  { return StatusMessage{Level: StatusInfo, Text: text} }
func warn(text string) StatusMessage  { return StatusMessage{Level: StatusWarn, Text: text} }
func errMsg(text string) StatusMessage { return StatusMessage{Level: StatusError, Text: text} }

var _ = warn // reserved for a future warning-level event; avoids an unused func today
