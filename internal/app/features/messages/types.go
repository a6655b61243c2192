package messages

type sendRequest struct {
	Channel  string `json:"channel"` // whatsapp (default) | sms | voice
	District string `json:"district"`
	Village  string `json:"village"` // empty = every active village in the district
	Message  string `json:"message"`
}
