package main

import (
    "bufio"
    "encoding/hex"
    "errors"
    "flag"
    "fmt"
    "io"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"

    "coesim/pkg/geo"
    "coesim/pkg/network"
    "coesim/pkg/protocol"
    "coesim/pkg/protocol/codec"
    "coesim/pkg/sim"
)

func main() {
    outDir := flag.String("out", "testdata/frame", "output directory for binary frames")
    seed := flag.Uint64("seed", 1, "seed for task ids")
    pad := flag.Int("packet-size", 1024, "virtual packet size recorded in padded frames")
    flag.Parse()
    if err := os.MkdirAll(*outDir, 0o755); err != nil { log.Fatal(err) }

    reg, err := codec.DefaultRegistry()
    if err != nil { log.Fatal(err) }
    id, err := uuid.NewRandomFromReader(sim.NewRand(*seed, "genframe"))
    if err != nil { log.Fatal(err) }

    ped := protocol.HostAddr(network.UEHost(0), protocol.PortResponse)
    edge := protocol.HostAddr(network.GatewayHost, protocol.PortTask)
    car := protocol.HostAddr(network.UEHost(1), protocol.PortTask)

    d := protocol.NewDescriptor(id, 3, 1028, sim.Time(1500*time.Millisecond))
    d.RequesterAddr = ped
    var all []protocol.Envelope
    for _, f := range []protocol.Format{protocol.FormatProto, protocol.FormatCBOR, protocol.FormatJSON} {
        name := formatName(f)

        // 1) Task request as sent by a pedestrian
        env, err := protocol.NewTaskEnvelope(protocol.MsgTask, ped, edge, &d, f, reg)
        if err != nil { log.Fatal(err) }
        writeOut(*outDir, fmt.Sprintf("task_%s.bin", name), mustFrame(&env))
        all = append(all, env)

        // 2) Vehicle response going straight back to the requester
        res := d
        res.Placement = protocol.PlacementVehicle
        res.NeighborCountAtDispatch = 1
        res.UplinkArrivalAt = d.CreatedAt.Add(2 * time.Millisecond)
        res.Serve(res.UplinkArrivalAt, 221720)
        res.FromVehicleToRequester = true
        env, err = protocol.NewTaskEnvelope(protocol.MsgResult, car, ped, &res, f, reg)
        if err != nil { log.Fatal(err) }
        writeOut(*outDir, fmt.Sprintf("result_vehicle_%s.bin", name), mustFrame(&env))
        all = append(all, env)

        // 3) Periodic beacon
        b := protocol.Beacon{VehicleID: 0, Position: geo.Position{X: 12.5, Y: -3}, QueueCapacity: 1, BeaconTimestamp: d.CreatedAt}
        env, err = protocol.NewBeaconEnvelope(car.WithPort(protocol.PortBeacon), edge.WithPort(protocol.PortBeacon), &b, protocol.FlagResync, f, reg)
        if err != nil { log.Fatal(err) }
        writeOut(*outDir, fmt.Sprintf("beacon_%s.bin", name), mustFrame(&env))
        all = append(all, env)
    }

    // 4) Task padded to the configured packet size; only the header records the padding
    env, err := protocol.NewTaskEnvelope(protocol.MsgTask, ped, edge, &d, protocol.FormatProto, reg)
    if err != nil { log.Fatal(err) }
    env.PadTo(*pad)
    writeOut(*outDir, "task_proto_padded.bin", mustFrame(&env))

    // 5) Task frame without a body, which receivers report as an anomaly
    empty := protocol.Envelope{Header: protocol.Header{Version: protocol.Version, Type: protocol.MsgTask, Source: ped.Pack(), Dest: edge.Pack()}}
    writeOut(*outDir, "task_empty.bin", mustFrame(&empty))
    all = append(all, env, empty)

    // 6) Every frame above back to back, as a capture would hold them
    stream := filepath.Join(*outDir, "frames.stream")
    if err := writeStream(stream, all); err != nil { log.Fatal(err) }
    n, err := countStream(stream)
    if err != nil { log.Fatal(err) }
    fmt.Printf("%-28s %5d frames\n", filepath.Base(stream), n)

    fmt.Println("Generated frames in", *outDir)
}

func formatName(f protocol.Format) string {
    switch f {
    case protocol.FormatProto:
        return "proto"
    case protocol.FormatCBOR:
        return "cbor"
    default:
        return "json"
    }
}

func mustFrame(e *protocol.Envelope) []byte {
    b, err := e.EncodeFrame()
    if err != nil { log.Fatal(err) }
    return b
}

func writeStream(path string, envs []protocol.Envelope) error {
    f, err := os.Create(path)
    if err != nil { return err }
    w := bufio.NewWriter(f)
    for i := range envs {
        if _, err := envs[i].WriteTo(w); err != nil {
            _ = f.Close()
            return fmt.Errorf("frame %d: %w", i, err)
        }
    }
    if err := w.Flush(); err != nil {
        _ = f.Close()
        return err
    }
    return f.Close()
}

// countStream reads frames until EOF, failing on a truncated one.
func countStream(path string) (int, error) {
    f, err := os.Open(path)
    if err != nil { return 0, err }
    defer f.Close()
    r := bufio.NewReader(f)
    n := 0
    for {
        var e protocol.Envelope
        if _, err := e.ReadFrom(r); err != nil {
            if errors.Is(err, io.EOF) { return n, nil }
            return n, fmt.Errorf("frame %d: %w", n, err)
        }
        n++
    }
}

func writeOut(dir, name string, b []byte) {
    p := filepath.Join(dir, name)
    if err := os.WriteFile(p, b, 0o644); err != nil { log.Fatal(err) }
    fmt.Printf("%-28s %5d bytes  head: %s\n", name, len(b), shortHex(b, 64))
}

func shortHex(b []byte, n int) string {
    if len(b) == 0 { return "" }
    if n > len(b) { n = len(b) }
    enc := hex.EncodeToString(b[:n])
    if len(b) > n { enc += "..." }
    var out []string
    for i := 0; i < len(enc); i += 4 {
        j := i + 4
        if j > len(enc) { j = len(enc) }
        out = append(out, enc[i:j])
    }
    return strings.Join(out, " ")
}
