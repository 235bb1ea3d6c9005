package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type PreferenceReminderMailData struct {
	FullName  string `json:"fullName"`
	GroupName string `json:"groupName"`
	WeekStart string `json:"weekStart"`
}

type SchedulePublishedMailData struct {
	FullName      string  `json:"fullName"`
	GroupName     string  `json:"groupName"`
	WeekStart     string  `json:"weekStart"`
	FairnessScore float64 `json:"fairnessScore"`
}

type ChangeEmailMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}
