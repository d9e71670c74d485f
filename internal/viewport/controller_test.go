package viewport_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

type recordingCollaborator struct {
	got viewport.Context
	err error
}

func (r *recordingCollaborator) Attach(ctx viewport.Context) error {
	r.got = ctx
	return r.err
}

var _ = Describe("Controller", func() {
	var (
		platform *fakePlatform
		ctrl     *viewport.Controller
	)

	BeforeEach(func() {
		platform = newFakePlatform()
		ctrl = viewport.New(platform, viewport.DefaultOptions())
	})

	Describe("Init", func() {
		It("appends the surface exactly once", func() {
			Expect(ctrl.Init()).To(Succeed())
			Expect(platform.appended).To(HaveLen(1))
			Expect(platform.appended[0]).To(BeIdenticalTo(platform.renderer.View()))
		})

		It("sizes the renderer to the window with transparency and anti-aliasing off", func() {
			Expect(ctrl.Init()).To(Succeed())
			Expect(platform.renderer.opts.Size).To(Equal(viewport.Size{Width: 800, Height: 600}))
			Expect(platform.renderer.opts.Transparent).To(BeFalse())
			Expect(platform.renderer.opts.Antialias).To(BeFalse())
			Expect(ctrl.Size()).To(Equal(viewport.Size{Width: 800, Height: 600}))
		})

		It("builds the scene root with the configured background", func() {
			Expect(ctrl.Init()).To(Succeed())
			Expect(ctrl.Context().Stage.Background()).To(Equal(stage.DefaultBackground))
			Expect(ctrl.Context().Renderer).To(BeIdenticalTo(viewport.Renderer(platform.renderer)))
		})

		It("registers the fullscreen-change and click listeners", func() {
			Expect(ctrl.Init()).To(Succeed())
			Expect(platform.Listeners(viewport.EventFullscreenChange)).To(Equal(1))
			Expect(platform.Listeners(viewport.EventClick)).To(Equal(1))
			Expect(platform.Listeners(viewport.EventWindowResize)).To(Equal(0))
		})

		It("schedules the first frame", func() {
			Expect(ctrl.Init()).To(Succeed())
			Expect(platform.Pending()).To(Equal(1))
			Expect(ctrl.Loop().Running()).To(BeTrue())
		})

		It("rejects a second Init", func() {
			Expect(ctrl.Init()).To(Succeed())
			Expect(ctrl.Init()).To(MatchError(viewport.ErrAlreadyInitialized))
			Expect(platform.appended).To(HaveLen(1))
		})

		It("wraps renderer construction failures", func() {
			platform.rendererErr = errBoom
			err := ctrl.Init()
			Expect(err).To(MatchError(errBoom))
			Expect(err.Error()).To(ContainSubstring("create renderer"))
			Expect(platform.appended).To(BeEmpty())
		})
	})

	Describe("fullscreen change", func() {
		BeforeEach(func() {
			Expect(ctrl.Init()).To(Succeed())
		})

		It("uses the screen size while fullscreen", func() {
			platform.fullscreen = true
			platform.Dispatch(viewport.EventFullscreenChange)
			Expect(ctrl.Size()).To(Equal(viewport.Size{Width: 1920, Height: 1080}))
			Expect(platform.renderer.resizes).To(Equal([]viewport.Size{{Width: 1920, Height: 1080}}))
		})

		It("uses the window size otherwise", func() {
			platform.window = viewport.Size{Width: 1024, Height: 768}
			platform.Dispatch(viewport.EventFullscreenChange)
			Expect(ctrl.Size()).To(Equal(viewport.Size{Width: 1024, Height: 768}))
			Expect(platform.renderer.size).To(Equal(viewport.Size{Width: 1024, Height: 768}))
		})

		It("accepts zero and clamps negative sizes", func() {
			platform.window = viewport.Size{Width: 0, Height: -5}
			platform.Dispatch(viewport.EventFullscreenChange)
			Expect(ctrl.Size()).To(Equal(viewport.Size{}))
			Expect(platform.renderer.size).To(Equal(viewport.Size{}))
		})

		It("tracks enter then exit", func() {
			platform.fullscreen = true
			platform.Dispatch(viewport.EventFullscreenChange)
			platform.fullscreen = false
			platform.Dispatch(viewport.EventFullscreenChange)
			Expect(ctrl.Size()).To(Equal(viewport.Size{Width: 800, Height: 600}))
			Expect(platform.renderer.resizes).To(HaveLen(2))
		})

		It("ignores plain window resizes unless following the window", func() {
			platform.window = viewport.Size{Width: 640, Height: 480}
			Expect(platform.Dispatch(viewport.EventWindowResize)).To(Equal(0))
			Expect(ctrl.Size()).To(Equal(viewport.Size{Width: 800, Height: 600}))
		})
	})

	Describe("follow window", func() {
		It("resizes on window resize while windowed", func() {
			opts := viewport.DefaultOptions()
			opts.FollowWindow = true
			ctrl = viewport.New(platform, opts)
			Expect(ctrl.Init()).To(Succeed())

			platform.window = viewport.Size{Width: 640, Height: 480}
			platform.Dispatch(viewport.EventWindowResize)
			Expect(ctrl.Size()).To(Equal(viewport.Size{Width: 640, Height: 480}))

			platform.fullscreen = true
			platform.window = viewport.Size{Width: 10, Height: 10}
			platform.Dispatch(viewport.EventWindowResize)
			Expect(ctrl.Size()).To(Equal(viewport.Size{Width: 640, Height: 480}))
		})
	})

	Describe("click", func() {
		It("requests fullscreen exactly once for the surface", func() {
			Expect(ctrl.Init()).To(Succeed())
			platform.Dispatch(viewport.EventClick)
			Expect(platform.requests).To(HaveLen(1))
			Expect(platform.requests[0]).To(BeIdenticalTo(platform.renderer.View()))
		})

		It("survives a failed request", func() {
			Expect(ctrl.Init()).To(Succeed())
			platform.fullscreenErr = errBoom
			Expect(func() { platform.Dispatch(viewport.EventClick) }).NotTo(Panic())
			Expect(platform.requests).To(HaveLen(1))
		})

		It("does nothing before Init", func() {
			ctrl.HandleClick()
			Expect(platform.requests).To(BeEmpty())
		})
	})

	Describe("render loop", func() {
		It("renders the scene every frame", func() {
			Expect(ctrl.Init()).To(Succeed())
			for i := 0; i < 5; i++ {
				Expect(platform.Flush()).To(Equal(1))
			}
			Expect(platform.renderer.renders).To(Equal(5))
			Expect(ctrl.Loop().Frames()).To(BeEquivalentTo(5))
		})

		It("keeps going after a render error", func() {
			Expect(ctrl.Init()).To(Succeed())
			platform.renderer.renderErr = errBoom
			platform.Flush()
			platform.Flush()
			Expect(ctrl.Loop().Err()).To(MatchError(errBoom))
			Expect(platform.Pending()).To(Equal(1))
		})

		It("reports frame durations to the observer", func() {
			var seen []time.Duration
			opts := viewport.DefaultOptions()
			opts.FrameObserver = func(d time.Duration) { seen = append(seen, d) }
			ctrl = viewport.New(platform, opts)
			Expect(ctrl.Init()).To(Succeed())
			platform.Flush()
			platform.Flush()
			Expect(seen).To(HaveLen(2))
		})
	})

	Describe("Close", func() {
		It("stops the loop and removes listeners", func() {
			Expect(ctrl.Init()).To(Succeed())
			ctrl.Close()
			Expect(ctrl.Loop().Running()).To(BeFalse())
			Expect(platform.Pending()).To(Equal(0))
			Expect(platform.canceled).To(HaveLen(1))
			Expect(platform.Dispatch(viewport.EventClick)).To(Equal(0))
			Expect(platform.Dispatch(viewport.EventFullscreenChange)).To(Equal(0))
		})

		It("is safe before Init and when repeated", func() {
			Expect(func() { ctrl.Close(); ctrl.Close() }).NotTo(Panic())
		})
	})

	Describe("Run", func() {
		It("initializes, pumps the platform and closes", func() {
			Expect(ctrl.Run(context.Background())).To(Succeed())
			Expect(platform.renderer.renders).To(Equal(3))
			Expect(ctrl.Loop().Running()).To(BeFalse())
		})

		It("returns the platform error", func() {
			platform.runErr = errBoom
			Expect(ctrl.Run(context.Background())).To(MatchError(errBoom))
		})
	})

	Describe("Attach", func() {
		It("fails before Init", func() {
			Expect(ctrl.Attach(&recordingCollaborator{})).To(MatchError(viewport.ErrNotInitialized))
		})

		It("hands over the scene root and renderer", func() {
			Expect(ctrl.Init()).To(Succeed())
			col := &recordingCollaborator{}
			Expect(ctrl.Attach(col)).To(Succeed())
			Expect(col.got.Stage).To(BeIdenticalTo(ctrl.Context().Stage))
			Expect(col.got.Renderer).To(BeIdenticalTo(ctrl.Context().Renderer))
		})

		It("wraps collaborator errors", func() {
			Expect(ctrl.Init()).To(Succeed())
			Expect(ctrl.Attach(&recordingCollaborator{err: errBoom})).To(MatchError(errBoom))
		})
	})
})
