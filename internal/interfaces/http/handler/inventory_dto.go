package handler

// ReceiveLotRequest is the request body for receiving a lot into stock
type ReceiveLotRequest struct {
	ProductID    string  `json:"product_id" binding:"required,uuid"`
	PharmacyID   string  `json:"pharmacy_id" binding:"required,uuid"`
	LotNumber    string  `json:"lot_number" binding:"required"`
	Quantity     int     `json:"quantity" binding:"required,min=1"`
	UnitCost     string  `json:"unit_cost" binding:"required,money"`
	ExpiryDate   *string `json:"expiry_date" binding:"omitempty,datetime=2006-01-02"`
	ReceivedDate string  `json:"received_date" binding:"omitempty,datetime=2006-01-02"`
}

// AdjustLotRequest is the request body for a manual lot correction
type AdjustLotRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// RecallLotRequest is the request body for recalling a lot
type RecallLotRequest struct {
	Reason string `json:"reason" binding:"required"`
}
