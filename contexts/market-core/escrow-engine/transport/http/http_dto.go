package httptransport

type ItemDTO struct {
	ItemID        uint64 `json:"item_id"`
	AssetContract string `json:"asset_contract"`
	TokenID       string `json:"token_id"`
	Seller        string `json:"seller"`
	Owner         string `json:"owner,omitempty"`
	Price         int64  `json:"price"`
	Sold          bool   `json:"sold"`
	ListedAt      string `json:"listed_at"`
}

type CreateListingRequest struct {
	AssetContract  string `json:"asset_contract"`
	TokenID        string `json:"token_id"`
	Price          int64  `json:"price"`
	RoyaltyBps     int64  `json:"royalty_bps,omitempty"`
	AttachedAmount int64  `json:"attached_amount"`
}

type CreateListingResponse struct {
	Item ItemDTO `json:"item"`
}

type UpdatePriceRequest struct {
	NewPrice int64 `json:"new_price"`
}

type UpdatePriceResponse struct {
	Item ItemDTO `json:"item"`
}

type CancelListingResponse struct {
	ItemID    uint64 `json:"item_id"`
	Cancelled bool   `json:"cancelled"`
}

type PurchaseRequest struct {
	AssetContract  string `json:"asset_contract,omitempty"`
	AttachedAmount int64  `json:"attached_amount"`
}

type PurchaseResponse struct {
	Item           ItemDTO `json:"item"`
	Creator        string  `json:"creator,omitempty"`
	RoyaltyPaid    int64   `json:"royalty_paid"`
	SellerProceeds int64   `json:"seller_proceeds"`
}

type ListUnsoldResponse struct {
	Items       []ItemDTO `json:"items"`
	UnsoldCount int       `json:"unsold_count"`
}

type ItemsResponse struct {
	Items []ItemDTO `json:"items"`
}

type GetItemResponse struct {
	Item ItemDTO `json:"item"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
