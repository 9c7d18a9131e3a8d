/* mirror.go
 * Contains the profile image mirrors. Discord attachment URLs expire, so when a bucket is configured the image is
 * copied there and the bucket's public URL is stored instead
 */

package media

import (
	"context"
	"fmt"

	"github.com/vlakddp4/publicbot/api/shared"
)

// Mirror returns a URL for an attachment that stays valid after the Discord message is gone
type Mirror interface {
	Mirror(ctx context.Context, userID int64, attachment shared.Attachment) (string, error)
}

// Passthrough stores the Discord attachment URL as-is. Used when no bucket is configured
type Passthrough struct{}

func (Passthrough) Mirror(_ context.Context, _ int64, attachment shared.Attachment) (string, error) {
	if attachment.URL == "" {
		return "", fmt.Errorf("attachment %q has no url", attachment.Filename)
	}
	return attachment.URL, nil
}
