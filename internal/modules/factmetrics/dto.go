package factmetrics

type LikeRequest struct {
	AdvertiseID string `json:"advertise_id"`
	Likes       *bool  `json:"likes"`
}

type ListQuery struct {
	StartDate    string `form:"start_date" binding:"omitempty,day"`
	EndDate      string `form:"end_date" binding:"omitempty,day"`
	RegionID     string `form:"region_id"`
	PlatformID   string `form:"platform_id"`
	DeviceTypeID string `form:"device_type_id"`
	GenderID     string `form:"gender_id"`
}

func (q ListQuery) filter() ListFilter {
	return ListFilter{
		StartDate:    q.StartDate,
		EndDate:      q.EndDate,
		RegionID:     q.RegionID,
		PlatformID:   q.PlatformID,
		DeviceTypeID: q.DeviceTypeID,
		GenderID:     q.GenderID,
	}
}
