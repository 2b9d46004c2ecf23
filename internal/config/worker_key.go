package config

type WorkerKeyStruct struct {
	PersistPracticeResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistPracticeResultsQueue: "persist_practice_results_queue",
}
