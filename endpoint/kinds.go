package endpoint

// Kind enumerates the API operations known to the route table.
type Kind int

const (
	AudioSpeech Kind = iota
	AudioTranscriptions
	AudioTranslations
	ChatCompletions
	Completions
	Embeddings
	Files
	File
	FileContent
	FineTuningJobs
	FineTuningJob
	FineTuningJobCancel
	FineTuningJobEvents
	FineTuningJobCheckpoints
	ImageGenerations
	ImageEdits
	ImageVariations
	Models
	Model
	Moderations
	Assistants
	Assistant
	Threads
	Thread
	ThreadRuns
	Messages
	Message
	Runs
	Run
	RunCancel
	RunSubmitToolOutputs
	RunSteps
	RunStep
	Batches
	Batch
	BatchCancel
	VectorStores
	VectorStore
	VectorStoreFiles
	VectorStoreFile
	VectorStoreFileBatches
	VectorStoreFileBatch
	VectorStoreFileBatchCancel
	VectorStoreFileBatchFiles

	kindCount
)

type route struct {
	name     string
	template string
}

var routes = [kindCount]route{
	AudioSpeech:         {"speech", "audio/speech"},
	AudioTranscriptions: {"transcriptions", "audio/transcriptions"},
	AudioTranslations:   {"translations", "audio/translations"},

	ChatCompletions: {"chat", "chat/completions"},
	Completions:     {"completions", "completions"},
	Embeddings:      {"embeddings", "embeddings"},

	Files:       {"files", "files"},
	File:        {"file", "files/{file_id}"},
	FileContent: {"file-content", "files/{file_id}/content"},

	FineTuningJobs:           {"fine-tuning-jobs", "fine_tuning/jobs"},
	FineTuningJob:            {"fine-tuning-job", "fine_tuning/jobs/{job_id}"},
	FineTuningJobCancel:      {"fine-tuning-job-cancel", "fine_tuning/jobs/{job_id}/cancel"},
	FineTuningJobEvents:      {"fine-tuning-job-events", "fine_tuning/jobs/{job_id}/events"},
	FineTuningJobCheckpoints: {"fine-tuning-job-checkpoints", "fine_tuning/jobs/{job_id}/checkpoints"},

	ImageGenerations: {"image-generations", "images/generations"},
	ImageEdits:       {"image-edits", "images/edits"},
	ImageVariations:  {"image-variations", "images/variations"},

	Models:      {"models", "models"},
	Model:       {"model", "models/{model}"},
	Moderations: {"moderations", "moderations"},

	Assistants: {"assistants", "assistants"},
	Assistant:  {"assistant", "assistants/{assistant_id}"},

	Threads:    {"threads", "threads"},
	Thread:     {"thread", "threads/{thread_id}"},
	ThreadRuns: {"thread-runs", "threads/runs"},

	Messages: {"messages", "threads/{thread_id}/messages"},
	Message:  {"message", "threads/{thread_id}/messages/{message_id}"},

	Runs:                 {"runs", "threads/{thread_id}/runs"},
	Run:                  {"run", "threads/{thread_id}/runs/{run_id}"},
	RunCancel:            {"run-cancel", "threads/{thread_id}/runs/{run_id}/cancel"},
	RunSubmitToolOutputs: {"run-submit-tool-outputs", "threads/{thread_id}/runs/{run_id}/submit_tool_outputs"},
	RunSteps:             {"run-steps", "threads/{thread_id}/runs/{run_id}/steps"},
	RunStep:              {"run-step", "threads/{thread_id}/runs/{run_id}/steps/{step_id}"},

	Batches:     {"batches", "batches"},
	Batch:       {"batch", "batches/{batch_id}"},
	BatchCancel: {"batch-cancel", "batches/{batch_id}/cancel"},

	VectorStores:               {"vector-stores", "vector_stores"},
	VectorStore:                {"vector-store", "vector_stores/{vector_store_id}"},
	VectorStoreFiles:           {"vector-store-files", "vector_stores/{vector_store_id}/files"},
	VectorStoreFile:            {"vector-store-file", "vector_stores/{vector_store_id}/files/{file_id}"},
	VectorStoreFileBatches:     {"vector-store-file-batches", "vector_stores/{vector_store_id}/file_batches"},
	VectorStoreFileBatch:       {"vector-store-file-batch", "vector_stores/{vector_store_id}/file_batches/{batch_id}"},
	VectorStoreFileBatchCancel: {"vector-store-file-batch-cancel", "vector_stores/{vector_store_id}/file_batches/{batch_id}/cancel"},
	VectorStoreFileBatchFiles:  {"vector-store-file-batch-files", "vector_stores/{vector_store_id}/file_batches/{batch_id}/files"},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		m[routes[k].name] = k
	}
	return m
}()

func (k Kind) valid() bool {
	return k >= 0 && k < kindCount
}

// Name returns the short name of k used on the command line.
func (k Kind) Name() string {
	if !k.valid() {
		return "unknown"
	}
	return routes[k].name
}

// Template returns the resource template of k, e.g. "files/{file_id}".
func (k Kind) Template() string {
	if !k.valid() {
		return ""
	}
	return routes[k].template
}

func (k Kind) String() string {
	return k.Name()
}

// Lookup returns the Kind registered under name.
func Lookup(name string) (Kind, bool) {
	k, ok := byName[name]
	return k, ok
}

// Kinds returns every known Kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}
