package ports

// ContentMarshal converts entry content to and from its stored bytes. The
// log frames the bytes itself, so implementations never see the channel.
type ContentMarshal interface {
	Marshal(content any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}
