// Package types defines core domain types for the StreamVault publish pipeline.
//
//nolint:revive // types is a common Go package naming convention
package types

import "strconv"

// Tag is a name/value pair attached to an upload.
// The network does not infer anything from the payload bytes, so everything
// a reader needs (type, title, content type) travels as tags.
type Tag struct {
	Name  string `msgpack:"name" json:"name"`
	Value string `msgpack:"value" json:"value"`
}

// Tag names used on uploads.
const (
	TagAppName         = "App-Name"
	TagType            = "Type"
	TagTitle           = "Title"
	TagArtist          = "Artist"
	TagDurationSeconds = "Duration-Seconds"
	TagContentType     = "Content-Type"
)

// Values of the Type tag.
const (
	UploadTypeSample   = "audio-sample"
	UploadTypeFull     = "audio-full"
	UploadTypeCoverArt = "cover-art"
)

// GetTag returns the value of the first tag with the given name.
func GetTag(tags []Tag, name string) (string, bool) {
	for _, t := range tags {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// HasTag reports whether a tag with the given name is present.
func HasTag(tags []Tag, name string) bool {
	_, ok := GetTag(tags, name)
	return ok
}

// SampleTags returns the tag list for a sample upload.
func SampleTags(title, artist string, durationSeconds int) []Tag {
	return []Tag{
		{Name: TagAppName, Value: AppName},
		{Name: TagType, Value: UploadTypeSample},
		{Name: TagTitle, Value: title},
		{Name: TagArtist, Value: artist},
		{Name: TagDurationSeconds, Value: strconv.Itoa(durationSeconds)},
	}
}

// FullTags returns the tag list for a full audio upload.
func FullTags(title, artist string) []Tag {
	return []Tag{
		{Name: TagAppName, Value: AppName},
		{Name: TagType, Value: UploadTypeFull},
		{Name: TagTitle, Value: title},
		{Name: TagArtist, Value: artist},
	}
}

// CoverArtTags returns the tag list for an artwork upload.
func CoverArtTags(title, artist string) []Tag {
	return []Tag{
		{Name: TagAppName, Value: AppName},
		{Name: TagType, Value: UploadTypeCoverArt},
		{Name: TagTitle, Value: title},
		{Name: TagArtist, Value: artist},
	}
}
