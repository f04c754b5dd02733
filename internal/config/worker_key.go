package config

type WorkerKeyStruct struct {
	ArchiveSessionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ArchiveSessionsQueue: "archive_sessions_queue",
}
