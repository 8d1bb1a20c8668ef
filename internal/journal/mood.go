package journal

// Mood is one of the fixed moods a user can record.
type Mood string

// Supported moods.
const (
	MoodHappy   Mood = "Happy"
	MoodContent Mood = "Content"
	MoodNeutral Mood = "Neutral"
	MoodSad     Mood = "Sad"
	MoodAngry   Mood = "Angry"
)

// MoodInfo describes how a mood is ranked and drawn.
type MoodInfo struct {
	Mood  Mood   `json:"mood"`
	Rank  int    `json:"rank"`
	Color string `json:"color"`
	Badge string `json:"badge"`
}

var moodTable = []MoodInfo{
	{Mood: MoodHappy, Rank: 5, Color: "#facc15", Badge: "badge-happy"},
	{Mood: MoodContent, Rank: 4, Color: "#4ade80", Badge: "badge-content"},
	{Mood: MoodNeutral, Rank: 3, Color: "#60a5fa", Badge: "badge-neutral"},
	{Mood: MoodSad, Rank: 2, Color: "#818cf8", Badge: "badge-sad"},
	{Mood: MoodAngry, Rank: 1, Color: "#ef4444", Badge: "badge-angry"},
}

// Moods returns the mood table, happiest first.
func Moods() []MoodInfo {
	out := make([]MoodInfo, len(moodTable))
	copy(out, moodTable)
	return out
}

// Info looks up the table row for m.
func (m Mood) Info() (MoodInfo, bool) {
	for _, info := range moodTable {
		if info.Mood == m {
			return info, true
		}
	}
	return MoodInfo{}, false
}

// Rank returns 1..5 for known moods and 0 otherwise.
func (m Mood) Rank() int {
	info, _ := m.Info()
	return info.Rank
}

// Valid reports whether m is in the mood table.
func (m Mood) Valid() bool {
	_, ok := m.Info()
	return ok
}

// MoodForRank returns the mood with the given rank.
func MoodForRank(rank int) (Mood, bool) {
	for _, info := range moodTable {
		if info.Rank == rank {
			return info.Mood, true
		}
	}
	return "", false
}
