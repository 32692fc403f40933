package dto

// RelayStoreRequest is the body of POST /sync/store.
type RelayStoreRequest struct {
	Data string `json:"data"`
}

// RelayStoreResponse is returned once a blob is stored.
type RelayStoreResponse struct {
	Code      string `json:"code"`
	ExpiresIn int    `json:"expiresIn"`
}

// RelayRetrieveResponse carries a retrieved blob.
type RelayRetrieveResponse struct {
	Data string `json:"data"`
}

// RelayErrorResponse is the relay's error body.
type RelayErrorResponse struct {
	Error string `json:"error"`
}
