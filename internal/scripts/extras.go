package scripts

import (
	"context"
	"fmt"

	"github.com/micro-nova/pico-emu/internal/machine"
	"github.com/micro-nova/pico-emu/internal/neopixel"
	"github.com/micro-nova/pico-emu/internal/network"
	"github.com/micro-nova/pico-emu/internal/rp2"
	"github.com/micro-nova/pico-emu/internal/uctypes"
)

// NeoPixelCycle fills an 8 pixel strip with red, green and blue, then walks
// a white pixel along it.
func NeoPixelCycle(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "NeoPixel Strip (GP28)"); err != nil {
		return err
	}
	strip, err := neopixel.New(b, b.Pin("28", machine.PinOut), 8, 3)
	if err != nil {
		return err
	}
	for _, c := range []neopixel.Color{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}} {
		if err := strip.Fill(c); err != nil {
			return err
		}
		strip.Write()
		if err := b.SleepMs(ctx, 300); err != nil {
			return err
		}
	}
	for i := range strip.Len() {
		if err := strip.Fill(neopixel.Color{0, 0, 0}); err != nil {
			return err
		}
		if err := strip.Set(i, neopixel.Color{255, 255, 255}); err != nil {
			return err
		}
		strip.Write()
		if err := b.SleepMs(ctx, 100); err != nil {
			return err
		}
	}
	return nil
}

// WLANConnect joins a network and lists nearby access points.
func WLANConnect(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "Pico W WiFi"); err != nil {
		return err
	}
	wlan := network.NewWLAN(b, network.STAIF)
	wlan.SetActive(true)
	for _, n := range wlan.Scan() {
		b.Printf("    %s ch%d %ddBm\n", n.SSID, n.Channel, n.RSSI)
	}
	wlan.Connect("MockNetwork1", "password")
	for wait := 0; !wlan.IsConnected() && wait < 10; wait++ {
		if err := b.SleepMs(ctx, 500); err != nil {
			return err
		}
	}
	cfg := wlan.IfConfig()
	b.Printf("  Connected: ip=%s gw=%s rssi=%d\n", cfg.IP, cfg.Gateway, wlan.RSSI())
	return nil
}

// PIOBlink starts a state machine on PIO0 driving GP25.
func PIOBlink(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "PIO State Machine"); err != nil {
		return err
	}
	pio, err := rp2.NewPIO(b, 0)
	if err != nil {
		return err
	}
	sm, err := pio.StateMachine(0, rp2.Program{0xe081, 0xe101, 0xe001}, 2000)
	if err != nil {
		return err
	}
	sm.SetActive(true)
	for i := range 4 {
		sm.Put(uint32(i & 1))
		if err := b.SleepMs(ctx, 250); err != nil {
			return err
		}
	}
	sm.SetActive(false)
	return nil
}

// accelAddr and accelReg locate the accelerometer block of an MPU-6050.
const (
	accelAddr = 0x68
	accelReg  = 0x3B
)

// accelLayout is the big-endian ACCEL_XOUT..ACCEL_ZOUT register block.
var accelLayout = uctypes.Descriptor{
	"x": {Offset: 0, Type: uctypes.Int16},
	"y": {Offset: 2, Type: uctypes.Int16},
	"z": {Offset: 4, Type: uctypes.Int16},
}

// AccelRead reads the accelerometer registers of an MPU-6050 on I2C0 three
// times and decodes them as signed 16-bit values.
func AccelRead(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "MPU-6050 Accelerometer (I2C0 0x68)"); err != nil {
		return err
	}
	bus := b.I2C(0, machine.I2COptions{SCL: b.Pin("1", machine.PinOut), SDA: b.Pin("0", machine.PinOut), Freq: 400_000})
	if err := bus.RegisterDevice(accelAddr); err != nil {
		return err
	}
	buf := make([]byte, uctypes.SizeofDescriptor(accelLayout))
	for i := range 3 {
		if err := bus.ReadFromMemInto(accelAddr, accelReg, buf); err != nil {
			return fmt.Errorf("read accel: %w", err)
		}
		regs := uctypes.NewStruct(buf, accelLayout, uctypes.BigEndian)
		b.Printf("    #%d x=%d y=%d z=%d\n", i+1, int(regs.Field("x")), int(regs.Field("y")), int(regs.Field("z")))
		if err := b.SleepMs(ctx, 100); err != nil {
			return err
		}
	}
	return nil
}
