package mirror

// Nft is a single serial under a non-fungible token class as the mirror node
// reports it. Metadata carries the on-ledger bytes base64-encoded.
type Nft struct {
	TokenID           string `json:"token_id"`
	SerialNumber      int64  `json:"serial_number"`
	AccountID         string `json:"account_id"`
	Metadata          string `json:"metadata"`
	Deleted           bool   `json:"deleted"`
	CreatedTimestamp  string `json:"created_timestamp"`
	ModifiedTimestamp string `json:"modified_timestamp"`
	SpenderID         string `json:"spender"`
}

type nftsResponse struct {
	Nfts  []Nft `json:"nfts"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

type TopicMessage struct {
	ConsensusTimestamp string     `json:"consensus_timestamp"`
	ChunkInfo          *ChunkInfo `json:"chunk_info,omitempty"`
	Message            string     `json:"message"`
	PayerAccountID     string     `json:"payer_account_id"`
	SequenceNumber     int64      `json:"sequence_number"`
	TopicID            string     `json:"topic_id"`
}

type ChunkInfo struct {
	Number int `json:"number,omitempty"`
	Total  int `json:"total,omitempty"`
}

type topicMessagesResponse struct {
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
	Messages []TopicMessage `json:"messages"`
}
