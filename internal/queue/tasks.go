package queue

const (
	TypeDocumentProcess = "document:process"
	TypeTrainingRun     = "training:run"
)

type DocumentProcessPayload struct {
	DocumentID string `json:"document_id"`
}

type TrainingRunPayload struct {
	SessionID string `json:"session_id"`
}
