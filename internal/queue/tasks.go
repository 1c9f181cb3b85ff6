package queue

const (
	TypeProgramGenerate = "program:generate"
)

type ProgramGeneratePayload struct {
	UserID string `json:"user_id"`
}
