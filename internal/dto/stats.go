package dto

type StatsResponse struct {
	Total    int64            `json:"total"`
	Verified int64            `json:"verified"`
	Variants map[string]int64 `json:"variants"`
}
