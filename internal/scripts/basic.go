package scripts

import (
	"context"
	"fmt"

	"github.com/micro-nova/pico-emu/internal/machine"
)

// Blink toggles GP25 five times.
func Blink(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "Pico LED Blink (GP25)"); err != nil {
		return err
	}
	led := b.Pin("25", machine.PinOut)
	for i := range 5 {
		b.Printf("    Blink %d/5\n", i+1)
		led.On()
		if err := b.SleepMs(ctx, 300); err != nil {
			return err
		}
		led.Off()
		if err := b.SleepMs(ctx, 300); err != nil {
			return err
		}
	}
	return nil
}

// PWMFade ramps GP25 up and down.
func PWMFade(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "Pico PWM Fade (GP25)"); err != nil {
		return err
	}
	pwm := b.PWM(b.Pin("25", machine.PinOut), 1000, 0)
	for duty := 0; duty < 65535; duty += 8192 {
		pwm.SetDutyU16(duty)
		if err := b.SleepMs(ctx, 100); err != nil {
			return err
		}
	}
	for duty := 65535; duty > 0; duty -= 8192 {
		pwm.SetDutyU16(duty)
		if err := b.SleepMs(ctx, 100); err != nil {
			return err
		}
	}
	pwm.Deinit()
	return nil
}

// GPIOChase lights GP2-GP8 in turn and clears them in reverse.
func GPIOChase(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "Pico GPIO Pins (GP2-GP8)"); err != nil {
		return err
	}
	var pins []*machine.Pin
	for i := 2; i <= 8; i++ {
		pins = append(pins, b.Pin(machine.GPIO(i), machine.PinOut))
	}
	for _, p := range pins {
		b.Printf("    GP%s ON\n", p.ID())
		p.On()
		if err := b.SleepMs(ctx, 150); err != nil {
			return err
		}
	}
	for i := len(pins) - 1; i >= 0; i-- {
		b.Printf("    GP%s OFF\n", pins[i].ID())
		pins[i].Off()
		if err := b.SleepMs(ctx, 150); err != nil {
			return err
		}
	}
	return nil
}

// ADCChannels samples the three ADC pins and the temperature sensor.
func ADCChannels(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "Pico ADC Channels"); err != nil {
		return err
	}
	channels := []struct {
		name string
		adc  *machine.ADC
	}{
		{"GP26 (ADC0)", b.ADC("26")},
		{"GP27 (ADC1)", b.ADC("27")},
		{"GP28 (ADC2)", b.ADC("28")},
		{"Internal Temp", b.ADC("4")},
	}
	for range 3 {
		for _, c := range channels {
			raw := c.adc.ReadU16()
			b.Printf("    %s: %.2fV\n", c.name, float64(raw)*3.3/65535)
			if err := b.SleepMs(ctx, 100); err != nil {
				return err
			}
		}
		if err := b.SleepMs(ctx, 400); err != nil {
			return err
		}
	}
	return nil
}

// I2CScan lists the devices on I2C0 and probes the first one.
func I2CScan(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "Pico I2C Bus (I2C0)"); err != nil {
		return err
	}
	bus := b.I2C(0, machine.I2COptions{SCL: b.Pin("1", machine.PinOut), SDA: b.Pin("0", machine.PinOut), Freq: 400_000})
	devices := bus.Scan()
	if len(devices) == 0 {
		b.Printf("  No devices found\n")
		return nil
	}
	b.Printf("\n  Found %d device(s):\n", len(devices))
	for _, addr := range devices {
		b.Printf("    0x%02X\n", addr)
	}
	who, err := bus.ReadFromMem(devices[0], 0x75, 1)
	if err != nil {
		return fmt.Errorf("probe 0x%02X: %w", devices[0], err)
	}
	b.Printf("  WHO_AM_I(0x%02X) = 0x%02X\n", devices[0], who[0])
	return nil
}

// UARTLoopback writes five lines to UART0 and reads them back.
func UARTLoopback(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "Pico UART (UART0)"); err != nil {
		return err
	}
	uart := b.UART(0, machine.UARTOptions{Baudrate: 115200, TX: b.Pin("0", machine.PinOut), RX: b.Pin("1", machine.PinIn)})
	for i := range 5 {
		msg := fmt.Sprintf("Hello %d\n", i+1)
		uart.Write([]byte(msg))
		b.Printf("    TX: %s", msg)
		if err := b.SleepMs(ctx, 200); err != nil {
			return err
		}
	}
	for line := uart.ReadLine(); line != nil; line = uart.ReadLine() {
		b.Printf("    RX: %s", line)
	}
	return nil
}

// TimerTick toggles the LED from a 5 Hz timer serviced by the main loop.
func TimerTick(ctx context.Context, b *machine.Board) error {
	if err := announce(ctx, b, "Timer Callback (5 Hz)"); err != nil {
		return err
	}
	led := b.Pin("25", machine.PinOut)
	ticks := 0
	tim := b.Timer(0)
	tim.Init(machine.TimerOptions{Mode: machine.TimerPeriodic, Freq: 5, Callback: func(*machine.Timer) {
		ticks++
		led.Toggle()
	}})
	defer tim.Deinit()

	for range 50 {
		b.Pump()
		if err := b.SleepMs(ctx, 20); err != nil {
			return err
		}
	}
	b.Printf("  %d ticks\n", ticks)
	return nil
}
