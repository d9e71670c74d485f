package viewport_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestViewport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Viewport Suite")
}
