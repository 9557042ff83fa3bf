package dto

import "time"

// PlatformStatsDTO - неизменяемый снимок счетчиков платформы
type PlatformStatsDTO struct {
	TotalTrails        int64     `json:"totalTrails"`
	CommunityMembers   int64     `json:"communityMembers"`
	VerifiedOrganizers int64     `json:"verifiedOrganizers"`
	ComputedAt         time.Time `json:"computedAt"`
}
