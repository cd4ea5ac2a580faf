package model

type EncodeCommandResponse struct {
	Tokens      []int        `json:"tokens"`
	StartFrame  int          `json:"start_frame"`
	VocabSize   int          `json:"vocab_size"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type EncodePianorollResponse struct {
	Shape       [4]int       `json:"shape"`
	Tracks      []int        `json:"tracks"`
	Data        []int        `json:"data"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type DecodeCommandRequest struct {
	Tokens     []int `json:"tokens"`
	StartFrame int   `json:"start_frame"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
