package fns

const (
	authPath    = "/v2/mobile/users/lkfl/auth"
	ticketPath  = "/v2/ticket"
	ticketsPath = "/v2/tickets/"
)

const (
	headerDeviceOS  = "Device-OS"
	headerDeviceID  = "Device-ID"
	headerSessionID = "sessionId"
)

type authRequest struct {
	INN          string `json:"inn"`
	Password     string `json:"password"`
	ClientSecret string `json:"client_secret"`
}

type authResponse struct {
	SessionID    string `json:"sessionId"`
	RefreshToken string `json:"refresh_token"`
	Phone        string `json:"phone"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Surname      string `json:"surname"`
}

type ticketRequest struct {
	QR string `json:"qr"`
}

type ticketResponse struct {
	Kind       string `json:"kind"`
	ID         string `json:"id"`
	Status     int64  `json:"status"`
	StatusReal int64  `json:"statusReal"`
}

type billResponse struct {
	Ticket struct {
		Document struct {
			Receipt struct {
				Items []receiptItem `json:"items"`
			} `json:"receipt"`
		} `json:"document"`
	} `json:"ticket"`
}

type receiptItem struct {
	Name        string `json:"name"`
	NDS         int64  `json:"nds"`
	NDSSum      int64  `json:"ndsSum"`
	PaymentType int64  `json:"paymentType"`
	Price       int64  `json:"price"`
	ProductType int64  `json:"productType"`
	Quantity    int64  `json:"quantity"`
	Sum         int64  `json:"sum"`
}
