//go:build opencv

package opencv

import (
	"context"
	"fmt"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	"gocv.io/x/gocv"
)

// HistogramComparator scores visual similarity via HSV histogram
// correlation. Scores are clamped to [0,1]; identical frames score 1.
type HistogramComparator struct {
	bins int
}

func NewHistogramComparator() *HistogramComparator {
	return &HistogramComparator{bins: 32}
}

func (c *HistogramComparator) Compare(ctx context.Context, a, b entity.FrameRef) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	histA, err := c.histogram(a.Location)
	if err != nil {
		return 0, err
	}
	defer histA.Close()

	histB, err := c.histogram(b.Location)
	if err != nil {
		return 0, err
	}
	defer histB.Close()

	score := gocv.CompareHist(histA, histB, gocv.HistCmpCorrel)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return float64(score), nil
}

func (c *HistogramComparator) histogram(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return gocv.Mat{}, fmt.Errorf("failed to load frame: %s", path)
	}
	defer img.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	hist := gocv.NewMat()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.CalcHist([]gocv.Mat{hsv}, []int{0, 1}, mask, &hist,
		[]int{c.bins, c.bins}, []float64{0, 180, 0, 256}, false)
	gocv.Normalize(hist, &hist, 0, 1, gocv.NormMinMax)

	return hist, nil
}
