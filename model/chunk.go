package model

type ChunkOverview struct {
	Filename string
	First    string
	Last     string
	Count    int
}

type ChunkIndex = map[string]Pair

type Pair struct {
	Start uint32
	End   uint32
}

type FileNum = uint32
type FileNumToPath = map[FileNum]string

// EncodedComposition is what a corpus run stores per input file.
type EncodedComposition struct {
	ID          string
	Path        string
	NumNotes    int
	Monophonic  []int
	Tokens      []int
	StartFrame  int
	Pianoroll   []uint8
	Shape       [4]int
	Diagnostics []Diagnostic
}
