package advertisement

type CreateRequest struct {
	PromoterName string `json:"ad_promot_company_name"`
	Message      string `json:"ad_message"`
	BuyURL       string `json:"buy_url" binding:"omitempty,url"`
	RunHours     string `json:"ad_run_hours" binding:"required"`
}
