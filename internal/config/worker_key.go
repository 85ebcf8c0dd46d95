package config

type WorkerKeyStruct struct {
	PersistSessionsQueue   string
	PersistDrillItemsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistSessionsQueue:   "persist_sessions_queue",
	PersistDrillItemsQueue: "persist_drill_items_queue",
}
